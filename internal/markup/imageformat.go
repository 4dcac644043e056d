package markup

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Raster and vector formats the remote service accepts as attachments.
const (
	FormatBMP  = "bmp"
	FormatGIF  = "gif"
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatWMF  = "wmf"
	FormatEMF  = "emf"
)

var extensions = map[string]string{
	FormatBMP:  "bmp",
	FormatGIF:  "gif",
	FormatJPEG: "jpg",
	FormatPNG:  "png",
	FormatTIFF: "tif",
	FormatWMF:  "wmf",
	FormatEMF:  "emf",
}

// DetectFormat sniffs image bytes. Only formats on the allow-list are
// reported; everything else returns false.
func DetectFormat(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	if isEMF(data) {
		return FormatEMF, true
	}
	if isWMF(data) {
		return FormatWMF, true
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	if _, ok := extensions[name]; !ok {
		return "", false
	}
	return name, true
}

// Extension returns the file extension used for a detected format.
func Extension(format string) string {
	return extensions[format]
}

func isEMF(data []byte) bool {
	// EMR_HEADER record type 1 followed by the " EMF" signature at offset 40.
	if len(data) < 44 {
		return false
	}
	return binary.LittleEndian.Uint32(data[0:4]) == 1 && string(data[40:44]) == " EMF"
}

func isWMF(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if binary.LittleEndian.Uint32(data[0:4]) == 0x9AC6CDD7 {
		return true
	}
	// Non-placeable metafile header: type 1 (memory) or 2 (disk), header size 9.
	kind := binary.LittleEndian.Uint16(data[0:2])
	size := binary.LittleEndian.Uint16(data[2:4])
	return (kind == 1 || kind == 2) && size == 9
}
