package markup

import (
	"strings"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// Step is a structured test step read from a step table.
type Step struct {
	Index          int
	Description    string
	ExpectedResult string
	SampleData     string
	Attachments    []Attachment
}

// Steps reads a table as test steps. The header row is skipped and each field
// comes from its configured 1-based column; rows whose fields are all empty
// produce no step. Numbering continues across the step tables of one artifact.
// Step images share the artifact placeholder counter but are owned by the
// step.
func (t *Transcoder) Steps(table interfaces.Table, columns interfaces.StepColumns) ([]Step, error) {
	t.closeLists()
	if table == nil {
		return nil, nil
	}
	rows := table.Rows()
	if len(rows) < 2 {
		return nil, nil
	}

	var steps []Step
	for _, row := range rows[1:] {
		cells := row.Cells()
		description := columnCell(cells, columns.Description)
		expected := columnCell(cells, columns.ExpectedResult)
		sample := columnCell(cells, columns.SampleData)
		if cellEmpty(description) && cellEmpty(expected) && cellEmpty(sample) {
			continue
		}

		t.stepCount++
		step := Step{Index: t.stepCount}
		t.owner = OwnerStep
		t.stepIndex = step.Index

		var err error
		if step.Description, err = t.stepField(&step, description); err == nil {
			if step.ExpectedResult, err = t.stepField(&step, expected); err == nil {
				step.SampleData, err = t.stepField(&step, sample)
			}
		}
		t.owner = OwnerArtifact
		t.stepIndex = 0
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (t *Transcoder) stepField(step *Step, cell interfaces.Cell) (string, error) {
	if cellEmpty(cell) {
		return "", nil
	}
	start := len(t.attachments)
	out, produced, err := t.capture(func() error {
		return t.cell(cell)
	})
	// Step attachments travel with the step, not the artifact.
	t.attachments = t.attachments[:start]
	step.Attachments = append(step.Attachments, produced...)
	return out, err
}

func columnCell(cells []interfaces.Cell, column int) interfaces.Cell {
	if column < 1 || column > len(cells) {
		return nil
	}
	return cells[column-1]
}

func cellEmpty(cell interfaces.Cell) bool {
	if cell == nil {
		return true
	}
	for _, region := range cell.Regions() {
		if strings.TrimSpace(Sanitize(region.Text())) != "" {
			return false
		}
		for _, run := range region.Runs() {
			if run.Image != nil {
				return false
			}
		}
	}
	return true
}
