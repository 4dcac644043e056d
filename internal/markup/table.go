package markup

import (
	"math"
	"strconv"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// Table appends a table. The first physical row renders header cells. Rows
// with fewer cells than the widest row get column spans inferred from their
// cell widths.
func (t *Transcoder) Table(table interfaces.Table) error {
	t.closeLists()
	if table == nil {
		return nil
	}
	rows := table.Rows()
	if len(rows) == 0 {
		return nil
	}
	grid := newColumnGrid(rows)

	t.buf.WriteString(`<table border="1">`)
	for i, row := range rows {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		cells := row.Cells()
		spans := grid.spans(cells)
		t.buf.WriteString("<tr>")
		for j, cell := range cells {
			t.buf.WriteString("<" + tag)
			if spans[j] > 1 {
				t.buf.WriteString(` colspan="` + strconv.Itoa(spans[j]) + `"`)
			}
			t.buf.WriteString(">")
			if err := t.cell(cell); err != nil {
				return err
			}
			t.buf.WriteString("</" + tag + ">")
		}
		t.buf.WriteString("</tr>")
	}
	t.buf.WriteString("</table>")
	return nil
}

func (t *Transcoder) cell(cell interfaces.Cell) error {
	if cell == nil {
		return nil
	}
	for _, region := range cell.Regions() {
		if err := t.Paragraph(region); err != nil {
			return err
		}
	}
	t.closeLists()
	return nil
}

// columnGrid holds the cumulative basic column widths taken from the first
// row that has the maximum cell count.
type columnGrid struct {
	columns     int
	breakpoints []float64
}

func newColumnGrid(rows []interfaces.Row) columnGrid {
	grid := columnGrid{}
	var basic []interfaces.Cell
	for _, row := range rows {
		cells := row.Cells()
		if len(cells) > grid.columns {
			grid.columns = len(cells)
			basic = cells
		}
	}
	if grid.columns == 0 {
		return grid
	}

	widths := cellWidths(basic)
	grid.breakpoints = make([]float64, len(widths))
	total := 0.0
	for i, w := range widths {
		total += w
		grid.breakpoints[i] = total
	}
	return grid
}

// spans returns the colspan of every cell in a row. Full rows span one column
// per cell; shorter rows map each cell's cumulative width to the nearest
// basic breakpoint, first match winning ties.
func (g columnGrid) spans(cells []interfaces.Cell) []int {
	spans := make([]int, len(cells))
	if len(cells) >= g.columns || g.columns == 0 {
		for i := range spans {
			spans[i] = 1
		}
		return spans
	}

	widths := cellWidths(cells)
	scale := 1.0
	if rowTotal := sum(widths); rowTotal > 0 {
		scale = g.breakpoints[len(g.breakpoints)-1] / rowTotal
	}

	previous := -1
	cumulative := 0.0
	for i, w := range widths {
		cumulative += w * scale
		index := g.nearest(cumulative)
		remaining := len(cells) - i - 1
		if limit := g.columns - 1 - remaining; index > limit {
			index = limit
		}
		if index <= previous {
			index = previous + 1
		}
		spans[i] = index - previous
		previous = index
	}
	return spans
}

func (g columnGrid) nearest(value float64) int {
	best := 0
	bestDistance := math.Inf(1)
	for i, bp := range g.breakpoints {
		if d := math.Abs(bp - value); d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	return best
}

// cellWidths returns cell widths, falling back to equal widths when the host
// reports none.
func cellWidths(cells []interfaces.Cell) []float64 {
	widths := make([]float64, len(cells))
	for i, cell := range cells {
		if cell != nil && cell.Width() > 0 {
			widths[i] = cell.Width()
		}
	}
	if sum(widths) <= 0 {
		for i := range widths {
			widths[i] = 1
		}
	}
	return widths
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
