package localstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type projectModel struct {
	bun.BaseModel `bun:"table:docsync_projects"`

	ID        int       `bun:"id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// artifactModel stores every artifact kind except steps. ParentID holds the
// folder of a test case or the release of a task.
type artifactModel struct {
	bun.BaseModel `bun:"table:docsync_artifacts"`

	ID           int       `bun:"id,pk,autoincrement"`
	ProjectID    int       `bun:"project_id,notnull"`
	Kind         string    `bun:"kind,notnull"`
	ParentID     *int      `bun:"parent_id"`
	Name         string    `bun:"name,notnull"`
	Description  string    `bun:"description"`
	IndentLevel  int       `bun:"indent_level"`
	LastModified time.Time `bun:"last_modified,notnull"`
}

type stepModel struct {
	bun.BaseModel `bun:"table:docsync_test_steps"`

	ID             int       `bun:"id,pk,autoincrement"`
	ProjectID      int       `bun:"project_id,notnull"`
	TestCaseID     int       `bun:"test_case_id,notnull"`
	Position       int       `bun:"position"`
	Description    string    `bun:"description"`
	ExpectedResult string    `bun:"expected_result"`
	SampleData     string    `bun:"sample_data"`
	LastModified   time.Time `bun:"last_modified,notnull"`
}

type attachmentModel struct {
	bun.BaseModel `bun:"table:docsync_attachments"`

	ID           int       `bun:"id,pk,autoincrement"`
	ProjectID    int       `bun:"project_id,notnull"`
	ArtifactKind string    `bun:"artifact_kind,notnull"`
	ArtifactID   int       `bun:"artifact_id,notnull"`
	Filename     string    `bun:"filename,notnull"`
	Data         []byte    `bun:"data"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func tableModels() []any {
	return []any{
		(*projectModel)(nil),
		(*artifactModel)(nil),
		(*stepModel)(nil),
		(*attachmentModel)(nil),
	}
}

func toRequirement(m *artifactModel) *interfaces.Requirement {
	return &interfaces.Requirement{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		IndentLevel:  m.IndentLevel,
		LastModified: m.LastModified.UTC(),
	}
}

func toTestFolder(m *artifactModel) *interfaces.TestFolder {
	return &interfaces.TestFolder{
		ID:           m.ID,
		ParentID:     m.ParentID,
		Name:         m.Name,
		Description:  m.Description,
		LastModified: m.LastModified.UTC(),
	}
}

func toTestCase(m *artifactModel) *interfaces.TestCase {
	return &interfaces.TestCase{
		ID:           m.ID,
		FolderID:     m.ParentID,
		Name:         m.Name,
		Description:  m.Description,
		LastModified: m.LastModified.UTC(),
	}
}

func toRelease(m *artifactModel) *interfaces.Release {
	return &interfaces.Release{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		LastModified: m.LastModified.UTC(),
	}
}

func toTask(m *artifactModel) *interfaces.Task {
	return &interfaces.Task{
		ID:           m.ID,
		ReleaseID:    m.ParentID,
		Name:         m.Name,
		Description:  m.Description,
		LastModified: m.LastModified.UTC(),
	}
}

func toTestStep(m *stepModel) *interfaces.TestStep {
	return &interfaces.TestStep{
		ID:             m.ID,
		TestCaseID:     m.TestCaseID,
		Position:       m.Position,
		Description:    m.Description,
		ExpectedResult: m.ExpectedResult,
		SampleData:     m.SampleData,
		LastModified:   m.LastModified.UTC(),
	}
}
