package markdown

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/internal/identity"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const (
	bodyStyle     = "Normal"
	monospaceFont = "monospace"
)

type walker struct {
	doc      *Document
	source   []byte
	dir      string
	defaults interfaces.RunFormat
	regions  []interfaces.Region
	headings []string
	ordinals map[string]int
	tables   int
}

func newWalker(doc *Document, source []byte, dir string) *walker {
	return &walker{
		doc:      doc,
		source:   source,
		dir:      dir,
		defaults: interfaces.RunFormat{Font: strings.TrimSpace(doc.meta.Font)},
		ordinals: map[string]int{},
	}
}

// blocks emits the block children of parent. listLevel is the nesting depth
// of the enclosing list, zero outside lists.
func (w *walker) blocks(parent ast.Node, listLevel int) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		w.block(child, listLevel)
	}
}

func (w *walker) block(n ast.Node, listLevel int) {
	switch node := n.(type) {
	case *ast.Heading:
		w.heading(node)
	case *ast.Paragraph, *ast.TextBlock:
		w.paragraph(node, nil)
	case *ast.List:
		w.list(node, listLevel+1)
	case *ast.Blockquote:
		w.blocks(node, listLevel)
	case *ast.FencedCodeBlock:
		w.code(node)
	case *ast.CodeBlock:
		w.code(node)
	case *east.Table:
		w.table(node)
	}
}

func (w *walker) heading(n *ast.Heading) {
	runs := w.inline(n, w.defaults, nil)
	name := plainText(runs)

	depth := n.Level - 1
	if depth > len(w.headings) {
		depth = len(w.headings)
	}
	path := append(append([]string(nil), w.headings[:depth]...), name)
	w.headings = path

	pathKey := identity.SlugPath(path)
	ordinal := w.ordinals[pathKey]
	w.ordinals[pathKey] = ordinal + 1

	key := identity.NodeUUID(w.doc.docID, pathKey, ordinal).String()
	stored := w.doc.sidecar.lookup(key)
	fields := memdoc.NewFields(stored.Identity, stored.Stamp)
	w.doc.nodes = append(w.doc.nodes, &node{key: key, name: name, fields: fields})

	w.regions = append(w.regions, &memdoc.Paragraph{
		Style:   fmt.Sprintf("Heading %d", n.Level),
		Outline: n.Level,
		Default: w.defaults,
		Content: runs,
		Fields:  fields,
	})
}

func (w *walker) paragraph(n ast.Node, list *interfaces.ListInfo) {
	runs := w.inline(n, w.defaults, nil)
	if len(runs) == 0 {
		return
	}
	w.regions = append(w.regions, &memdoc.Paragraph{
		Style:    bodyStyle,
		Default:  w.defaults,
		Content:  runs,
		ListInfo: list,
	})
}

func (w *walker) list(n *ast.List, level int) {
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			switch block := child.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				w.paragraph(block, &interfaces.ListInfo{Ordered: n.IsOrdered(), Level: level})
			case *ast.List:
				w.list(block, level+1)
			default:
				w.block(block, level)
			}
		}
	}
}

// code emits one monospace paragraph per non-blank line.
func (w *walker) code(n ast.Node) {
	format := w.defaults
	format.Font = monospaceFont
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimRight(string(segment.Value(w.source)), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.regions = append(w.regions, &memdoc.Paragraph{
			Style:   bodyStyle,
			Default: w.defaults,
			Content: []interfaces.Run{{Text: line, Format: format}},
		})
	}
}

func (w *walker) table(n *east.Table) {
	w.tables++
	table := memdoc.NewTable(fmt.Sprintf("table-%d", w.tables))
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader, *east.TableRow:
		default:
			continue
		}
		out := memdoc.NewRow()
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			runs := w.inline(cell, w.defaults, nil)
			if len(runs) == 0 {
				out.Items = append(out.Items, memdoc.NewCell(1))
				continue
			}
			out.Items = append(out.Items, memdoc.NewCell(1, &memdoc.Paragraph{
				Style:   bodyStyle,
				Default: w.defaults,
				Content: runs,
			}))
		}
		table.Grid = append(table.Grid, out)
	}
	w.regions = append(w.regions, table.Region())
}

func (w *walker) inline(parent ast.Node, format interfaces.RunFormat, runs []interfaces.Run) []interfaces.Run {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			value := string(n.Segment.Value(w.source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				value += " "
			}
			runs = appendText(runs, value, format)
		case *ast.String:
			runs = appendText(runs, string(n.Value), format)
		case *ast.CodeSpan:
			code := format
			code.Font = monospaceFont
			runs = w.inline(n, code, runs)
		case *ast.Emphasis:
			emphasis := format
			if n.Level >= 2 {
				emphasis.Bold = true
			} else {
				emphasis.Italic = true
			}
			runs = w.inline(n, emphasis, runs)
		case *ast.AutoLink:
			runs = appendText(runs, string(n.URL(w.source)), format)
		case *ast.Image:
			runs = append(runs, w.image(n, format))
		case *ast.RawHTML:
		default:
			runs = w.inline(n, format, runs)
		}
	}
	return runs
}

// image maps a local image to a lazily read run. Remote images keep only
// their alt text.
func (w *walker) image(n *ast.Image, format interfaces.RunFormat) interfaces.Run {
	alt := plainText(w.inline(n, format, nil))
	dest := strings.TrimSpace(string(n.Destination))
	parsed, err := url.Parse(dest)
	if err != nil || parsed.Scheme != "" || dest == "" {
		return interfaces.Run{Text: alt, Format: format}
	}
	path := filepath.FromSlash(parsed.Path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.dir, path)
	}
	return interfaces.Run{Image: &fileImage{path: path, alt: alt}}
}

func appendText(runs []interfaces.Run, value string, format interfaces.RunFormat) []interfaces.Run {
	if value == "" {
		return runs
	}
	if last := len(runs) - 1; last >= 0 && runs[last].Image == nil && runs[last].Format == format {
		runs[last].Text += value
		return runs
	}
	return append(runs, interfaces.Run{Text: value, Format: format})
}

func plainText(runs []interfaces.Run) string {
	var b strings.Builder
	for _, run := range runs {
		if run.Image == nil {
			b.WriteString(run.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

type fileImage struct {
	path string
	alt  string
}

func (i *fileImage) Data() ([]byte, error) {
	data, err := os.ReadFile(i.path)
	if err != nil {
		return nil, fmt.Errorf("markdown: read image: %w", err)
	}
	return data, nil
}

func (i *fileImage) AltText() string { return i.alt }
