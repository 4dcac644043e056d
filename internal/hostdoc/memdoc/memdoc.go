// Package memdoc builds host documents in memory. Embedding hosts use it to
// hand the engine an already parsed document; tests use it to script inputs.
package memdoc

import (
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

var ErrReadOnly = errors.New("memdoc: side channel is read only")

// Document is an ordered list of regions.
type Document struct {
	name    string
	regions []interfaces.Region
}

// New creates a document from regions in reading order.
func New(name string, regions ...interfaces.Region) *Document {
	return &Document{name: name, regions: regions}
}

// Add appends regions and returns the document for chaining.
func (d *Document) Add(regions ...interfaces.Region) *Document {
	d.regions = append(d.regions, regions...)
	return d
}

func (d *Document) Name() string                  { return d.name }
func (d *Document) Regions() []interfaces.Region { return d.regions }

// Fields is an in-memory side channel.
type Fields struct {
	mu       sync.Mutex
	identity string
	stamp    string
	ReadOnly bool
}

// NewFields seeds a side channel.
func NewFields(identity, stamp string) *Fields {
	return &Fields{identity: identity, stamp: stamp}
}

func (f *Fields) Identity() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity
}

func (f *Fields) Stamp() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stamp
}

func (f *Fields) SetIdentity(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadOnly {
		return ErrReadOnly
	}
	f.identity = value
	return nil
}

func (f *Fields) SetStamp(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadOnly {
		return ErrReadOnly
	}
	f.stamp = value
	return nil
}

// Paragraph is a region. The zero value is an unstyled empty body paragraph.
type Paragraph struct {
	Style    string
	Outline  int
	Align    interfaces.Alignment
	Default  interfaces.RunFormat
	Content  []interfaces.Run
	ListInfo *interfaces.ListInfo
	InTable  *Table
	Fields   *Fields
}

// Para creates a body paragraph holding plain text.
func Para(text string) *Paragraph {
	return &Paragraph{Content: []interfaces.Run{{Text: text}}}
}

// Styled creates a paragraph with a named style and a side channel.
func Styled(style, text string) *Paragraph {
	return &Paragraph{Style: style, Content: []interfaces.Run{{Text: text}}, Fields: &Fields{}}
}

// Outlined creates a body paragraph at an outline level with a side channel.
func Outlined(level int, text string) *Paragraph {
	return &Paragraph{Outline: level, Content: []interfaces.Run{{Text: text}}, Fields: &Fields{}}
}

// Item creates a list item paragraph.
func Item(ordered bool, level int, text string) *Paragraph {
	return &Paragraph{
		Content:  []interfaces.Run{{Text: text}},
		ListInfo: &interfaces.ListInfo{Ordered: ordered, Level: level},
	}
}

// WithRuns replaces the paragraph content.
func (p *Paragraph) WithRuns(runs ...interfaces.Run) *Paragraph {
	p.Content = runs
	return p
}

// WithFields attaches a side channel seeded with identity and stamp.
func (p *Paragraph) WithFields(identity, stamp string) *Paragraph {
	p.Fields = NewFields(identity, stamp)
	return p
}

// WithAlignment sets the paragraph alignment.
func (p *Paragraph) WithAlignment(align interfaces.Alignment) *Paragraph {
	p.Align = align
	return p
}

// WithDefaults sets the paragraph-level run format.
func (p *Paragraph) WithDefaults(format interfaces.RunFormat) *Paragraph {
	p.Default = format
	return p
}

func (p *Paragraph) StyleName() string               { return p.Style }
func (p *Paragraph) OutlineLevel() int               { return p.Outline }
func (p *Paragraph) Alignment() interfaces.Alignment { return p.Align }
func (p *Paragraph) Defaults() interfaces.RunFormat  { return p.Default }
func (p *Paragraph) Runs() []interfaces.Run          { return p.Content }
func (p *Paragraph) List() *interfaces.ListInfo      { return p.ListInfo }

func (p *Paragraph) Table() interfaces.Table {
	if p.InTable == nil {
		return nil
	}
	return p.InTable
}

func (p *Paragraph) SideChannel() interfaces.SideChannel {
	if p.Fields == nil {
		return nil
	}
	return p.Fields
}

func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, run := range p.Content {
		if run.Image != nil {
			continue
		}
		b.WriteString(run.Text)
	}
	return strings.TrimSpace(b.String())
}

// Text is a plain run.
func Text(value string) interfaces.Run {
	return interfaces.Run{Text: value}
}

// Formatted is a run with explicit formatting.
func Formatted(value string, format interfaces.RunFormat) interfaces.Run {
	return interfaces.Run{Text: value, Format: format}
}

// Picture is an inline image run.
func Picture(data []byte, alt string) interfaces.Run {
	return interfaces.Run{Image: &Image{Bytes: data, Alt: alt}}
}

// Image is an in-memory inline graphic. Err simulates a host read failure.
type Image struct {
	Bytes []byte
	Alt   string
	Err   error
}

func (i *Image) Data() ([]byte, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	return i.Bytes, nil
}

func (i *Image) AltText() string { return i.Alt }

// Table is an in-memory grid.
type Table struct {
	ID   string
	Grid []*Row
}

// NewTable creates a table from rows.
func NewTable(id string, rows ...*Row) *Table {
	return &Table{ID: id, Grid: rows}
}

// Region returns the region that places the table in the document flow.
func (t *Table) Region() *Paragraph {
	return &Paragraph{InTable: t}
}

func (t *Table) Key() string { return t.ID }

func (t *Table) Rows() []interfaces.Row {
	rows := make([]interfaces.Row, 0, len(t.Grid))
	for _, row := range t.Grid {
		rows = append(rows, row)
	}
	return rows
}

// Row is one table row.
type Row struct {
	Items []*Cell
}

// NewRow creates a row from cells.
func NewRow(cells ...*Cell) *Row {
	return &Row{Items: cells}
}

// TextRow creates a row of equally wide plain text cells.
func TextRow(width float64, values ...string) *Row {
	row := &Row{}
	for _, value := range values {
		row.Items = append(row.Items, TextCell(width, value))
	}
	return row
}

func (r *Row) Cells() []interfaces.Cell {
	cells := make([]interfaces.Cell, 0, len(r.Items))
	for _, cell := range r.Items {
		cells = append(cells, cell)
	}
	return cells
}

// Cell is one table cell.
type Cell struct {
	W       float64
	Content []interfaces.Region
}

// NewCell creates a cell holding regions.
func NewCell(width float64, regions ...interfaces.Region) *Cell {
	return &Cell{W: width, Content: regions}
}

// TextCell creates a cell holding one plain paragraph. Empty text yields an
// empty cell.
func TextCell(width float64, value string) *Cell {
	if value == "" {
		return &Cell{W: width}
	}
	return &Cell{W: width, Content: []interfaces.Region{Para(value)}}
}

func (c *Cell) Width() float64              { return c.W }
func (c *Cell) Regions() []interfaces.Region { return c.Content }
