// Package localstore is an offline artifact service backed by SQLite. It
// lets a document be synchronized without a tracker, for rehearsals and for
// tests that need real persistence across runs.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/remote"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

var (
	ErrDSNRequired         = errors.New("localstore: dsn is required")
	ErrNotAuthenticated    = errors.New("localstore: session is not authenticated")
	ErrNoProject           = errors.New("localstore: no project bound to the session")
	ErrConcurrencyConflict = errors.New("localstore: artifact was modified since the supplied stamp")
	ErrNameRequired        = errors.New("localstore: artifact name is required")
)

const defaultWebURL = "http://localhost"

// Config configures a Store.
type Config struct {
	// Username and Password, when set, are required by Authenticate.
	Username string
	Password string
	// WebURL is the root used when resolving attachment URLs.
	WebURL          string
	AttachmentRoute string
	Now             func() time.Time
	Logger          interfaces.Logger
}

// Store implements interfaces.ArtifactClient over a bun database.
type Store struct {
	db       *bun.DB
	ownsDB   bool
	cfg      Config
	resolver *remote.URLResolver
	logger   interfaces.Logger
	now      func() time.Time

	authenticated bool
	projectID     int
}

var _ interfaces.ArtifactClient = (*Store)(nil)

// Open connects to a SQLite database and creates the schema.
func Open(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstore: open %q: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)
	store, err := New(bun.NewDB(sqldb, sqlitedialect.New()), cfg)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	store.ownsDB = true
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing database. Callers run Migrate themselves.
func New(db *bun.DB, cfg Config) (*Store, error) {
	if db == nil {
		return nil, errors.New("localstore: store requires a database")
	}
	web := strings.TrimSpace(cfg.WebURL)
	if web == "" {
		web = defaultWebURL
	}
	resolver, err := remote.NewURLResolver(remote.URLResolverConfig{
		BaseURL: web,
		Route:   cfg.AttachmentRoute,
	})
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		db:       db,
		cfg:      cfg,
		resolver: resolver,
		logger:   logging.OrNoOp(cfg.Logger),
		now:      now,
	}, nil
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range tableModels() {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("localstore: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the database when the store opened it.
func (s *Store) Close() error {
	if s == nil || !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// stamp truncates to the precision carried by side-channel stamps.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Store) Authenticate(_ context.Context, user, secret string) (bool, error) {
	if s.cfg.Username != "" || s.cfg.Password != "" {
		if user != s.cfg.Username || secret != s.cfg.Password {
			s.authenticated = false
			return false, nil
		}
	}
	s.authenticated = true
	return true, nil
}

// ConnectToProject binds the session, registering unknown projects.
func (s *Store) ConnectToProject(ctx context.Context, projectID int) (bool, error) {
	if !s.authenticated {
		return false, ErrNotAuthenticated
	}
	if projectID <= 0 {
		return false, nil
	}
	project := projectModel{ID: projectID, CreatedAt: s.stamp()}
	if _, err := s.db.NewInsert().Model(&project).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return false, fmt.Errorf("localstore: register project %d: %w", projectID, err)
	}
	s.projectID = projectID
	s.logger.Debug("docsync.localstore.project_bound", "project_id", projectID)
	return true, nil
}

func (s *Store) session() error {
	if !s.authenticated {
		return ErrNotAuthenticated
	}
	if s.projectID == 0 {
		return ErrNoProject
	}
	return nil
}

func (s *Store) insertArtifact(ctx context.Context, model *artifactModel) error {
	if err := s.session(); err != nil {
		return err
	}
	model.Name = strings.TrimSpace(model.Name)
	if model.Name == "" {
		return ErrNameRequired
	}
	model.ID = 0
	model.ProjectID = s.projectID
	model.LastModified = s.stamp()
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("localstore: insert %s: %w", model.Kind, err)
	}
	return nil
}

func (s *Store) fetchArtifact(ctx context.Context, kind interfaces.ArtifactKind, id int) (*artifactModel, error) {
	if err := s.session(); err != nil {
		return nil, err
	}
	var model artifactModel
	err := s.db.NewSelect().Model(&model).
		Where("id = ?", id).
		Where("kind = ?", string(kind)).
		Where("project_id = ?", s.projectID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("localstore: %s %d: %w", kind, id, interfaces.ErrArtifactNotFound)
		}
		return nil, err
	}
	return &model, nil
}

func (s *Store) listArtifacts(ctx context.Context, kind interfaces.ArtifactKind) ([]artifactModel, error) {
	if err := s.session(); err != nil {
		return nil, err
	}
	var models []artifactModel
	err := s.db.NewSelect().Model(&models).
		Where("kind = ?", string(kind)).
		Where("project_id = ?", s.projectID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return models, nil
}

// updateArtifact rewrites the mutable columns after checking the
// concurrency stamp. A zero stamp skips the check.
func (s *Store) updateArtifact(ctx context.Context, kind interfaces.ArtifactKind, id int, sent time.Time, apply func(*artifactModel)) (*artifactModel, error) {
	existing, err := s.fetchArtifact(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !sent.IsZero() && !sent.UTC().Truncate(time.Second).Equal(existing.LastModified.UTC()) {
		return nil, fmt.Errorf("%w: %s %d", ErrConcurrencyConflict, kind, id)
	}
	apply(existing)
	existing.Name = strings.TrimSpace(existing.Name)
	if existing.Name == "" {
		return nil, ErrNameRequired
	}
	existing.LastModified = s.stamp()
	_, err = s.db.NewUpdate().
		Model(existing).
		Column("name", "description", "indent_level", "parent_id", "last_modified").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("localstore: update %s %d: %w", kind, id, err)
	}
	return existing, nil
}

func (s *Store) CreateRequirement(ctx context.Context, req interfaces.Requirement, indentOffset int) (*interfaces.Requirement, error) {
	level, err := s.nextIndentLevel(ctx, indentOffset)
	if err != nil {
		return nil, err
	}
	model := &artifactModel{
		Kind:        string(interfaces.KindRequirement),
		Name:        req.Name,
		Description: req.Description,
		IndentLevel: level,
	}
	if err := s.insertArtifact(ctx, model); err != nil {
		return nil, err
	}
	return toRequirement(model), nil
}

// nextIndentLevel places a new requirement relative to the most recently
// created one, the way the tracker applies indent offsets.
func (s *Store) nextIndentLevel(ctx context.Context, offset int) (int, error) {
	if err := s.session(); err != nil {
		return 0, err
	}
	var last artifactModel
	err := s.db.NewSelect().Model(&last).
		Where("kind = ?", string(interfaces.KindRequirement)).
		Where("project_id = ?", s.projectID).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	previous := 1
	switch {
	case err == nil:
		previous = last.IndentLevel
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("localstore: last requirement: %w", err)
	}
	if level := previous + offset; level > 1 {
		return level, nil
	}
	return 1, nil
}

func (s *Store) UpdateRequirement(ctx context.Context, req interfaces.Requirement) (*interfaces.Requirement, error) {
	model, err := s.updateArtifact(ctx, interfaces.KindRequirement, req.ID, req.LastModified, func(m *artifactModel) {
		m.Name = req.Name
		m.Description = req.Description
	})
	if err != nil {
		return nil, err
	}
	return toRequirement(model), nil
}

func (s *Store) FetchRequirement(ctx context.Context, id int) (*interfaces.Requirement, error) {
	model, err := s.fetchArtifact(ctx, interfaces.KindRequirement, id)
	if err != nil {
		return nil, err
	}
	return toRequirement(model), nil
}

func (s *Store) FetchRequirements(ctx context.Context) ([]interfaces.Requirement, error) {
	models, err := s.listArtifacts(ctx, interfaces.KindRequirement)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Requirement, len(models))
	for i := range models {
		out[i] = *toRequirement(&models[i])
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, task interfaces.Task) (*interfaces.Task, error) {
	model := &artifactModel{
		Kind:        string(interfaces.KindTask),
		ParentID:    task.ReleaseID,
		Name:        task.Name,
		Description: task.Description,
	}
	if err := s.insertArtifact(ctx, model); err != nil {
		return nil, err
	}
	return toTask(model), nil
}

func (s *Store) UpdateTask(ctx context.Context, task interfaces.Task) (*interfaces.Task, error) {
	model, err := s.updateArtifact(ctx, interfaces.KindTask, task.ID, task.LastModified, func(m *artifactModel) {
		m.Name = task.Name
		m.Description = task.Description
		m.ParentID = task.ReleaseID
	})
	if err != nil {
		return nil, err
	}
	return toTask(model), nil
}

func (s *Store) FetchTask(ctx context.Context, id int) (*interfaces.Task, error) {
	model, err := s.fetchArtifact(ctx, interfaces.KindTask, id)
	if err != nil {
		return nil, err
	}
	return toTask(model), nil
}

func (s *Store) FetchTasks(ctx context.Context) ([]interfaces.Task, error) {
	models, err := s.listArtifacts(ctx, interfaces.KindTask)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Task, len(models))
	for i := range models {
		out[i] = *toTask(&models[i])
	}
	return out, nil
}

func (s *Store) CreateRelease(ctx context.Context, release interfaces.Release) (*interfaces.Release, error) {
	model := &artifactModel{
		Kind:        string(interfaces.KindRelease),
		Name:        release.Name,
		Description: release.Description,
	}
	if err := s.insertArtifact(ctx, model); err != nil {
		return nil, err
	}
	return toRelease(model), nil
}

func (s *Store) FetchRelease(ctx context.Context, id int) (*interfaces.Release, error) {
	model, err := s.fetchArtifact(ctx, interfaces.KindRelease, id)
	if err != nil {
		return nil, err
	}
	return toRelease(model), nil
}

func (s *Store) FetchReleases(ctx context.Context) ([]interfaces.Release, error) {
	models, err := s.listArtifacts(ctx, interfaces.KindRelease)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Release, len(models))
	for i := range models {
		out[i] = *toRelease(&models[i])
	}
	return out, nil
}

func (s *Store) CreateTestCaseFolder(ctx context.Context, folder interfaces.TestFolder) (*interfaces.TestFolder, error) {
	model := &artifactModel{
		Kind:        string(interfaces.KindTestFolder),
		ParentID:    folder.ParentID,
		Name:        folder.Name,
		Description: folder.Description,
	}
	if err := s.insertArtifact(ctx, model); err != nil {
		return nil, err
	}
	return toTestFolder(model), nil
}

func (s *Store) FetchTestCaseFolder(ctx context.Context, id int) (*interfaces.TestFolder, error) {
	model, err := s.fetchArtifact(ctx, interfaces.KindTestFolder, id)
	if err != nil {
		return nil, err
	}
	return toTestFolder(model), nil
}

func (s *Store) CreateTestCase(ctx context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	model := &artifactModel{
		Kind:        string(interfaces.KindTestCase),
		ParentID:    tc.FolderID,
		Name:        tc.Name,
		Description: tc.Description,
	}
	if err := s.insertArtifact(ctx, model); err != nil {
		return nil, err
	}
	return toTestCase(model), nil
}

func (s *Store) UpdateTestCase(ctx context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	model, err := s.updateArtifact(ctx, interfaces.KindTestCase, tc.ID, tc.LastModified, func(m *artifactModel) {
		m.Name = tc.Name
		m.Description = tc.Description
		m.ParentID = tc.FolderID
	})
	if err != nil {
		return nil, err
	}
	return toTestCase(model), nil
}

func (s *Store) FetchTestCase(ctx context.Context, id int) (*interfaces.TestCase, error) {
	model, err := s.fetchArtifact(ctx, interfaces.KindTestCase, id)
	if err != nil {
		return nil, err
	}
	return toTestCase(model), nil
}

// AddTestStep appends a step; a zero position places it after the last one.
func (s *Store) AddTestStep(ctx context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	if _, err := s.fetchArtifact(ctx, interfaces.KindTestCase, step.TestCaseID); err != nil {
		return nil, err
	}
	position := step.Position
	if position <= 0 {
		count, err := s.db.NewSelect().Model((*stepModel)(nil)).
			Where("test_case_id = ?", step.TestCaseID).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("localstore: count steps: %w", err)
		}
		position = count + 1
	}
	model := &stepModel{
		ProjectID:      s.projectID,
		TestCaseID:     step.TestCaseID,
		Position:       position,
		Description:    step.Description,
		ExpectedResult: step.ExpectedResult,
		SampleData:     step.SampleData,
		LastModified:   s.stamp(),
	}
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, fmt.Errorf("localstore: insert test step: %w", err)
	}
	return toTestStep(model), nil
}

func (s *Store) UpdateTestStep(ctx context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	if err := s.session(); err != nil {
		return nil, err
	}
	var model stepModel
	err := s.db.NewSelect().Model(&model).
		Where("id = ?", step.ID).
		Where("project_id = ?", s.projectID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("localstore: %s %d: %w", interfaces.KindTestStep, step.ID, interfaces.ErrArtifactNotFound)
		}
		return nil, err
	}
	model.Description = step.Description
	model.ExpectedResult = step.ExpectedResult
	model.SampleData = step.SampleData
	model.LastModified = s.stamp()
	_, err = s.db.NewUpdate().
		Model(&model).
		Column("description", "expected_result", "sample_data", "last_modified").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("localstore: update test step %d: %w", step.ID, err)
	}
	return toTestStep(&model), nil
}

// TestSteps lists the steps of a test case in position order.
func (s *Store) TestSteps(ctx context.Context, testCaseID int) ([]interfaces.TestStep, error) {
	if err := s.session(); err != nil {
		return nil, err
	}
	var models []stepModel
	err := s.db.NewSelect().Model(&models).
		Where("test_case_id = ?", testCaseID).
		Where("project_id = ?", s.projectID).
		Order("position ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.TestStep, len(models))
	for i := range models {
		out[i] = *toTestStep(&models[i])
	}
	return out, nil
}

func (s *Store) AddAttachment(ctx context.Context, kind interfaces.ArtifactKind, artifactID int, data []byte, filename string) (int, error) {
	if err := s.session(); err != nil {
		return 0, err
	}
	model := &attachmentModel{
		ProjectID:    s.projectID,
		ArtifactKind: string(kind),
		ArtifactID:   artifactID,
		Filename:     strings.TrimSpace(filename),
		Data:         append([]byte(nil), data...),
		CreatedAt:    s.stamp(),
	}
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return 0, fmt.Errorf("localstore: insert attachment: %w", err)
	}
	return model.ID, nil
}

// Attachment returns the stored bytes and filename of an attachment.
func (s *Store) Attachment(ctx context.Context, id int) ([]byte, string, error) {
	if err := s.session(); err != nil {
		return nil, "", err
	}
	var model attachmentModel
	err := s.db.NewSelect().Model(&model).
		Where("id = ?", id).
		Where("project_id = ?", s.projectID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("localstore: attachment %d: %w", id, interfaces.ErrArtifactNotFound)
		}
		return nil, "", err
	}
	return model.Data, model.Filename, nil
}

func (s *Store) ResolveArtifactURL(_ context.Context, hint string, projectID, attachmentID int) (string, error) {
	return s.resolver.Resolve(hint, projectID, attachmentID)
}
