package interfaces

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrArtifactNotFound is returned (wrapped) by ArtifactClient fetches when the
// remote object does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactKind names the remote artifact types the engine produces.
type ArtifactKind string

const (
	KindRequirement ArtifactKind = "requirement"
	KindTestFolder  ArtifactKind = "test_folder"
	KindTestCase    ArtifactKind = "test_case"
	KindTestStep    ArtifactKind = "test_step"
	KindRelease     ArtifactKind = "release"
	KindTask        ArtifactKind = "task"
)

var kindCodes = map[ArtifactKind]string{
	KindRequirement: "RQ",
	KindTestFolder:  "TF",
	KindTestCase:    "TC",
	KindTestStep:    "TS",
	KindRelease:     "RL",
	KindTask:        "TK",
}

// Code returns the two-letter code embedded in identity tokens.
func (k ArtifactKind) Code() string {
	return kindCodes[k]
}

// KindFromCode maps a two-letter code back to its kind.
func KindFromCode(code string) (ArtifactKind, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for kind, c := range kindCodes {
		if c == code {
			return kind, true
		}
	}
	return "", false
}

// Requirement is a remote requirement record.
type Requirement struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IndentLevel  int       `json:"indent_level"`
	LastModified time.Time `json:"last_modified"`
}

// TestFolder groups test cases.
type TestFolder struct {
	ID           int       `json:"id"`
	ParentID     *int      `json:"parent_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LastModified time.Time `json:"last_modified"`
}

// TestCase is a remote test case record.
type TestCase struct {
	ID           int       `json:"id"`
	FolderID     *int      `json:"folder_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LastModified time.Time `json:"last_modified"`
}

// TestStep belongs to a test case.
type TestStep struct {
	ID             int       `json:"id"`
	TestCaseID     int       `json:"test_case_id"`
	Position       int       `json:"position"`
	Description    string    `json:"description"`
	ExpectedResult string    `json:"expected_result"`
	SampleData     string    `json:"sample_data"`
	LastModified   time.Time `json:"last_modified"`
}

// Release is a remote release (iteration) that tasks are scheduled into.
type Release struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LastModified time.Time `json:"last_modified"`
}

// Task is a remote task, optionally bound to a release.
type Task struct {
	ID           int       `json:"id"`
	ReleaseID    *int      `json:"release_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LastModified time.Time `json:"last_modified"`
}

// ArtifactClient is the remote artifact service as seen by the sync driver.
// Calls are sequential within one run; implementations do not need to be safe
// for concurrent use by the same run.
type ArtifactClient interface {
	Authenticate(ctx context.Context, user, secret string) (bool, error)
	ConnectToProject(ctx context.Context, projectID int) (bool, error)

	CreateRequirement(ctx context.Context, req Requirement, indentOffset int) (*Requirement, error)
	UpdateRequirement(ctx context.Context, req Requirement) (*Requirement, error)
	FetchRequirement(ctx context.Context, id int) (*Requirement, error)
	FetchRequirements(ctx context.Context) ([]Requirement, error)

	CreateTask(ctx context.Context, task Task) (*Task, error)
	UpdateTask(ctx context.Context, task Task) (*Task, error)
	FetchTask(ctx context.Context, id int) (*Task, error)
	FetchTasks(ctx context.Context) ([]Task, error)

	CreateRelease(ctx context.Context, release Release) (*Release, error)
	FetchRelease(ctx context.Context, id int) (*Release, error)
	FetchReleases(ctx context.Context) ([]Release, error)

	CreateTestCaseFolder(ctx context.Context, folder TestFolder) (*TestFolder, error)
	FetchTestCaseFolder(ctx context.Context, id int) (*TestFolder, error)
	CreateTestCase(ctx context.Context, tc TestCase) (*TestCase, error)
	UpdateTestCase(ctx context.Context, tc TestCase) (*TestCase, error)
	FetchTestCase(ctx context.Context, id int) (*TestCase, error)
	AddTestStep(ctx context.Context, step TestStep) (*TestStep, error)
	UpdateTestStep(ctx context.Context, step TestStep) (*TestStep, error)

	AddAttachment(ctx context.Context, kind ArtifactKind, artifactID int, data []byte, filename string) (int, error)
	ResolveArtifactURL(ctx context.Context, hint string, projectID, attachmentID int) (string, error)
}
