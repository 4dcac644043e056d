package markup

import (
	"testing"

	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

func TestTableHeaderAndBody(t *testing.T) {
	table := memdoc.NewTable("t1",
		memdoc.TextRow(10, "Name", "Value"),
		memdoc.TextRow(10, "a", "1"),
	)
	tr := NewTranscoder()
	if err := tr.Table(table); err != nil {
		t.Fatalf("Table() error: %v", err)
	}
	want := `<table border="1"><tr><th><p style="">Name</p></th><th><p style="">Value</p></th></tr>` +
		`<tr><td><p style="">a</p></td><td><p style="">1</p></td></tr></table>`
	if got := tr.Markup(); got != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestTableColspanInference(t *testing.T) {
	table := memdoc.NewTable("t2",
		memdoc.TextRow(25, "a", "b", "c", "d"),
		memdoc.NewRow(memdoc.TextCell(50, "ab"), memdoc.TextCell(50, "cd")),
	)
	grid := newColumnGrid(table.Rows())
	spans := grid.spans(table.Rows()[1].Cells())
	if len(spans) != 2 || spans[0] != 2 || spans[1] != 2 {
		t.Fatalf("expected spans [2 2], got %v", spans)
	}

	tr := NewTranscoder()
	_ = tr.Table(table)
	want := `<table border="1"><tr><th><p style="">a</p></th><th><p style="">b</p></th><th><p style="">c</p></th><th><p style="">d</p></th></tr>` +
		`<tr><td colspan="2"><p style="">ab</p></td><td colspan="2"><p style="">cd</p></td></tr></table>`
	if got := tr.Markup(); got != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestColspanUsesWidthRatios(t *testing.T) {
	rows := []interfaces.Row{
		memdoc.NewRow(memdoc.TextCell(10, "a"), memdoc.TextCell(20, "b"), memdoc.TextCell(10, "c")),
		// Same proportions at half the units: 3/4 of the row then 1/4.
		memdoc.NewRow(memdoc.TextCell(15, "ab"), memdoc.TextCell(5, "c")),
	}
	grid := newColumnGrid(rows)
	spans := grid.spans(rows[1].Cells())
	if spans[0] != 2 || spans[1] != 1 {
		t.Fatalf("expected spans [2 1], got %v", spans)
	}
}

func TestColspanTiesPickFirstBreakpoint(t *testing.T) {
	rows := []interfaces.Row{
		memdoc.TextRow(10, "a", "b", "c", "d"),
		memdoc.NewRow(memdoc.TextCell(15, "x"), memdoc.TextCell(25, "y")),
	}
	grid := newColumnGrid(rows)
	spans := grid.spans(rows[1].Cells())
	if spans[0] != 1 || spans[1] != 3 {
		t.Fatalf("expected spans [1 3], got %v", spans)
	}
}

func TestColspanNeverBelowOne(t *testing.T) {
	rows := []interfaces.Row{
		memdoc.TextRow(10, "a", "b", "c"),
		memdoc.NewRow(memdoc.TextCell(1, "x"), memdoc.TextCell(1, "y")),
	}
	grid := newColumnGrid(rows)
	spans := grid.spans(rows[1].Cells())
	for _, span := range spans {
		if span < 1 {
			t.Fatalf("span below one: %v", spans)
		}
	}
}

func TestTableCellsShareAttachmentCounter(t *testing.T) {
	img := memdoc.NewCell(10, memdoc.Para("").WithRuns(memdoc.Picture(pngBytes(t), "cell")))
	table := memdoc.NewTable("t3", memdoc.NewRow(img))

	tr := NewTranscoder()
	_ = tr.Paragraph(memdoc.Para("").WithRuns(memdoc.Picture(pngBytes(t), "inline")))
	_ = tr.Table(table)

	attachments := tr.Attachments()
	if len(attachments) != 2 || attachments[1].Placeholder != "docsync-attachment-2.png" {
		t.Fatalf("expected shared counter, got %+v", attachments)
	}
}
