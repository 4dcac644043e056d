package interfaces

// Document is the read-only view of a host document the engine walks. Host
// adapters (markdown files, in-memory documents, word processor bridges)
// implement it; the engine never reaches into host object internals.
type Document interface {
	// Name identifies the document in logs and error entries.
	Name() string
	// Regions returns the document's contiguous units in reading order.
	Regions() []Region
}

// Alignment is the paragraph alignment reported by the host.
type Alignment string

const (
	AlignDefault Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// RunFormat carries the inline formatting flags of a run or of a paragraph
// default.
type RunFormat struct {
	Bold      bool
	Italic    bool
	Underline bool
	Font      string
}

// Run is one inline piece of a region: either text with formatting, or an
// inline image when Image is non-nil.
type Run struct {
	Text   string
	Format RunFormat
	Image  InlineImage
}

// InlineImage exposes the raster bytes of an inline graphic. Format detection
// happens in the engine, so hosts only hand over bytes.
type InlineImage interface {
	Data() ([]byte, error)
	AltText() string
}

// ListInfo describes list membership of a region. Level is 1-based.
type ListInfo struct {
	Ordered bool
	Level   int
}

// SideChannel is the pair of free-form host fields reserved for the engine:
// the identity token and the concurrency stamp. A reserved literal in the
// identity field excludes the node from synchronization.
type SideChannel interface {
	Identity() string
	Stamp() string
	SetIdentity(value string) error
	SetStamp(value string) error
}

// Region is a paragraph, list item or table as reported by the host.
type Region interface {
	StyleName() string
	// OutlineLevel is 0 for body text and 1..n for outline levels.
	OutlineLevel() int
	Alignment() Alignment
	// Defaults returns the paragraph-level formatting runs are compared to.
	Defaults() RunFormat
	Runs() []Run
	// List returns nil when the region is not a list item.
	List() *ListInfo
	// Table returns the table the region belongs to, or nil.
	Table() Table
	// SideChannel may return nil when the host cannot store fields for the
	// region; such regions can be synced but never re-identified.
	SideChannel() SideChannel
	// Text is the plain text of the region, used for artifact names.
	Text() string
}

// Table is a grid of cells. Key must be stable for the duration of one run so
// the engine can avoid transcoding the same table twice.
type Table interface {
	Key() string
	Rows() []Row
}

// Row is one physical table row.
type Row interface {
	Cells() []Cell
}

// Cell is one physical cell. Width is in host units; only ratios matter.
type Cell interface {
	Width() float64
	Regions() []Region
}
