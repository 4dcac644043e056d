// Package markdown adapts Markdown files to the host document model.
// Headings map to "Heading N" styles and outline levels. Side-channel fields
// live in a YAML sidecar next to the file, keyed by a deterministic node key.
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/internal/identity"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// SidecarSuffix is appended to the document path to locate its sidecar.
const SidecarSuffix = ".docsync.yaml"

// Meta is the optional front matter block of a document.
type Meta struct {
	Title   string `yaml:"title"`
	Project int    `yaml:"project"`
	Mode    string `yaml:"mode"`
	// Font is the paragraph default font; runs in other fonts get a span.
	Font string `yaml:"font"`
}

// Document is a parsed Markdown file.
type Document struct {
	name        string
	sidecarPath string
	meta        Meta
	docID       uuid.UUID
	regions     []interfaces.Region
	nodes       []*node
	sidecar     *Sidecar
}

type node struct {
	key    string
	name   string
	fields *memdoc.Fields
}

var _ interfaces.Document = (*Document)(nil)

// Load reads path, its front matter and its sidecar when present.
func Load(path string) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("markdown: read %s: %w", path, err)
	}
	sidecarPath := path + SidecarSuffix
	sidecar, err := ReadSidecar(sidecarPath)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(filepath.Base(path), filepath.Dir(path), source, sidecar)
	if err != nil {
		return nil, err
	}
	doc.sidecarPath = sidecarPath
	return doc, nil
}

// Parse builds a document from source. Relative image paths resolve against
// dir. A nil sidecar starts every node without identity.
func Parse(name, dir string, source []byte, sidecar *Sidecar) (*Document, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("markdown: parse front matter: %w", err)
	}
	if sidecar == nil {
		sidecar = &Sidecar{}
	}

	docName := strings.TrimSpace(meta.Title)
	if docName == "" {
		docName = name
	}
	doc := &Document{
		name:    docName,
		meta:    meta,
		docID:   identity.DocumentUUID(name),
		sidecar: sidecar,
	}

	engine := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	root := engine.Parser().Parse(text.NewReader(body))

	w := newWalker(doc, body, dir)
	w.blocks(root, 0)
	doc.regions = w.regions
	return doc, nil
}

func (d *Document) Name() string                  { return d.name }
func (d *Document) Regions() []interfaces.Region { return d.regions }

// Meta returns the parsed front matter.
func (d *Document) Meta() Meta { return d.meta }

// Save writes the side-channel fields back to the sidecar file.
func (d *Document) Save() error {
	if d.sidecarPath == "" {
		return ErrNoSidecarPath
	}
	return d.Snapshot().Write(d.sidecarPath)
}

// Snapshot merges the current side-channel values into the loaded sidecar.
// Entries for headings no longer in the document are kept so a renamed
// heading can be re-linked by hand.
func (d *Document) Snapshot() *Sidecar {
	out := &Sidecar{
		Document: d.docID.String(),
		Nodes:    make(map[string]SidecarNode, len(d.sidecar.Nodes)+len(d.nodes)),
	}
	for key, entry := range d.sidecar.Nodes {
		out.Nodes[key] = entry
	}
	for _, n := range d.nodes {
		entry := SidecarNode{
			Name:     n.name,
			Identity: n.fields.Identity(),
			Stamp:    n.fields.Stamp(),
		}
		if entry.Identity == "" && entry.Stamp == "" {
			delete(out.Nodes, n.key)
			continue
		}
		out.Nodes[n.key] = entry
	}
	return out
}
