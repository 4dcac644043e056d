package markup

import (
	"html"
	"strings"
)

// Sanitize strips the control characters 0x00-0x1F that are not legal in the
// remote service's XML payloads. Printable input is returned unchanged and
// applying it twice is the same as applying it once.
func Sanitize(value string) string {
	if strings.IndexFunc(value, isControl) < 0 {
		return value
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, value)
}

func isControl(r rune) bool {
	return r >= 0x00 && r <= 0x1F
}

// escapeText sanitizes then escapes text for element content and attribute
// values.
func escapeText(value string) string {
	return html.EscapeString(Sanitize(value))
}
