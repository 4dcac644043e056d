package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// fakeClient is an in-memory artifact service.
type fakeClient struct {
	authOK    bool
	projectOK bool
	authErr   error

	nextID       int
	requirements map[int]interfaces.Requirement
	folders      map[int]interfaces.TestFolder
	testCases    map[int]interfaces.TestCase
	steps        map[int]interfaces.TestStep
	releases     map[int]interfaces.Release
	tasks        map[int]interfaces.Task
	attachments  map[int]string

	calls     []string
	failName  string
	attachErr error
	clock     time.Time

	onCreate   func(name string)
	sentStamps []time.Time
	offsets    map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		authOK:       true,
		projectOK:    true,
		requirements: map[int]interfaces.Requirement{},
		folders:      map[int]interfaces.TestFolder{},
		testCases:    map[int]interfaces.TestCase{},
		steps:        map[int]interfaces.TestStep{},
		releases:     map[int]interfaces.Release{},
		tasks:        map[int]interfaces.Task{},
		attachments:  map[int]string{},
		offsets:      map[string]int{},
		clock:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeClient) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeClient) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeClient) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeClient) count(prefix string) int {
	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeClient) check(name string) error {
	if f.failName != "" && name == f.failName {
		return fmt.Errorf("remote rejected %q", name)
	}
	if f.onCreate != nil {
		f.onCreate(name)
	}
	return nil
}

func (f *fakeClient) Authenticate(_ context.Context, user, _ string) (bool, error) {
	f.record("Authenticate")
	return f.authOK, f.authErr
}

func (f *fakeClient) ConnectToProject(_ context.Context, _ int) (bool, error) {
	f.record("ConnectToProject")
	return f.projectOK, nil
}

func (f *fakeClient) CreateRequirement(_ context.Context, req interfaces.Requirement, offset int) (*interfaces.Requirement, error) {
	f.record("CreateRequirement")
	if err := f.check(req.Name); err != nil {
		return nil, err
	}
	req.ID = f.id()
	req.LastModified = f.tick()
	f.requirements[req.ID] = req
	f.offsets[req.Name] = offset
	return &req, nil
}

func (f *fakeClient) UpdateRequirement(_ context.Context, req interfaces.Requirement) (*interfaces.Requirement, error) {
	f.record("UpdateRequirement")
	f.sentStamps = append(f.sentStamps, req.LastModified)
	if _, ok := f.requirements[req.ID]; !ok {
		return nil, interfaces.ErrArtifactNotFound
	}
	req.LastModified = f.tick()
	f.requirements[req.ID] = req
	return &req, nil
}

func (f *fakeClient) FetchRequirement(_ context.Context, id int) (*interfaces.Requirement, error) {
	f.record("FetchRequirement")
	req, ok := f.requirements[id]
	if !ok {
		return nil, fmt.Errorf("requirement %d: %w", id, interfaces.ErrArtifactNotFound)
	}
	return &req, nil
}

func (f *fakeClient) FetchRequirements(context.Context) ([]interfaces.Requirement, error) {
	out := make([]interfaces.Requirement, 0, len(f.requirements))
	for _, req := range f.requirements {
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeClient) CreateTask(_ context.Context, task interfaces.Task) (*interfaces.Task, error) {
	f.record("CreateTask")
	if err := f.check(task.Name); err != nil {
		return nil, err
	}
	task.ID = f.id()
	task.LastModified = f.tick()
	f.tasks[task.ID] = task
	return &task, nil
}

func (f *fakeClient) UpdateTask(_ context.Context, task interfaces.Task) (*interfaces.Task, error) {
	f.record("UpdateTask")
	task.LastModified = f.tick()
	f.tasks[task.ID] = task
	return &task, nil
}

func (f *fakeClient) FetchTask(_ context.Context, id int) (*interfaces.Task, error) {
	f.record("FetchTask")
	task, ok := f.tasks[id]
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}
	return &task, nil
}

func (f *fakeClient) FetchTasks(context.Context) ([]interfaces.Task, error) {
	out := make([]interfaces.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeClient) CreateRelease(_ context.Context, release interfaces.Release) (*interfaces.Release, error) {
	f.record("CreateRelease")
	if err := f.check(release.Name); err != nil {
		return nil, err
	}
	release.ID = f.id()
	release.LastModified = f.tick()
	f.releases[release.ID] = release
	return &release, nil
}

func (f *fakeClient) FetchRelease(_ context.Context, id int) (*interfaces.Release, error) {
	f.record("FetchRelease")
	release, ok := f.releases[id]
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}
	return &release, nil
}

func (f *fakeClient) FetchReleases(context.Context) ([]interfaces.Release, error) {
	f.record("FetchReleases")
	out := make([]interfaces.Release, 0, len(f.releases))
	for _, release := range f.releases {
		out = append(out, release)
	}
	return out, nil
}

func (f *fakeClient) CreateTestCaseFolder(_ context.Context, folder interfaces.TestFolder) (*interfaces.TestFolder, error) {
	f.record("CreateTestCaseFolder")
	if err := f.check(folder.Name); err != nil {
		return nil, err
	}
	folder.ID = f.id()
	folder.LastModified = f.tick()
	f.folders[folder.ID] = folder
	return &folder, nil
}

func (f *fakeClient) FetchTestCaseFolder(_ context.Context, id int) (*interfaces.TestFolder, error) {
	f.record("FetchTestCaseFolder")
	folder, ok := f.folders[id]
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}
	return &folder, nil
}

func (f *fakeClient) CreateTestCase(_ context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	f.record("CreateTestCase")
	if err := f.check(tc.Name); err != nil {
		return nil, err
	}
	tc.ID = f.id()
	tc.LastModified = f.tick()
	f.testCases[tc.ID] = tc
	return &tc, nil
}

func (f *fakeClient) UpdateTestCase(_ context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	f.record("UpdateTestCase")
	tc.LastModified = f.tick()
	f.testCases[tc.ID] = tc
	return &tc, nil
}

func (f *fakeClient) FetchTestCase(_ context.Context, id int) (*interfaces.TestCase, error) {
	f.record("FetchTestCase")
	tc, ok := f.testCases[id]
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}
	return &tc, nil
}

func (f *fakeClient) AddTestStep(_ context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	f.record("AddTestStep")
	step.ID = f.id()
	f.steps[step.ID] = step
	return &step, nil
}

func (f *fakeClient) UpdateTestStep(_ context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	f.record("UpdateTestStep")
	if _, ok := f.steps[step.ID]; !ok {
		return nil, errors.New("unknown step")
	}
	f.steps[step.ID] = step
	return &step, nil
}

func (f *fakeClient) AddAttachment(_ context.Context, kind interfaces.ArtifactKind, artifactID int, _ []byte, filename string) (int, error) {
	f.record("AddAttachment:" + string(kind))
	if f.attachErr != nil {
		return 0, f.attachErr
	}
	id := f.id()
	f.attachments[id] = fmt.Sprintf("%s/%d/%s", kind, artifactID, filename)
	return id, nil
}

func (f *fakeClient) ResolveArtifactURL(_ context.Context, hint string, projectID, attachmentID int) (string, error) {
	f.record("ResolveArtifactURL")
	return fmt.Sprintf("https://tracker.example.com/%d/%s/%d.aspx", projectID, hint, attachmentID), nil
}
