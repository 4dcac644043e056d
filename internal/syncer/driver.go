// Package syncer reconciles the artifacts found in a host document against a
// remote artifact service.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-docsync/internal/classify"
	"github.com/goliatone/go-docsync/internal/hierarchy"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const (
	fallbackName = "Untitled"
	// DefaultAttachmentHint is the navigation hint passed when resolving
	// attachment URLs.
	DefaultAttachmentHint = "Attachment"
)

// DriverConfig wires the driver's collaborators.
type DriverConfig struct {
	Client interfaces.ArtifactClient
	Styles interfaces.StyleMapping
	Logger interfaces.Logger
	// Now overrides the clock used for outcome timestamps.
	Now func() time.Time
}

// RunOptions selects what one run does.
type RunOptions struct {
	ProjectID      int
	Mode           interfaces.SyncMode
	Username       string
	Password       string
	AttachmentHint string
	// DryRun classifies and transcodes without touching the remote service.
	DryRun bool
	// DetachOrphans creates the children of a failed folder or release with
	// no parent. By default those children fail.
	DetachOrphans bool
}

// Driver runs sync passes. One driver may serve many runs, but runs against
// the same document must not overlap.
type Driver struct {
	client interfaces.ArtifactClient
	styles interfaces.StyleMapping
	logger interfaces.Logger
	now    func() time.Time
}

// NewDriver builds a Driver from the supplied configuration.
func NewDriver(cfg DriverConfig) *Driver {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		client: cfg.Client,
		styles: cfg.Styles,
		logger: logging.OrNoOp(cfg.Logger),
		now:    now,
	}
}

// Run executes a sync pass on the calling goroutine.
func (d *Driver) Run(ctx context.Context, doc interfaces.Document, opts RunOptions) (*Outcome, error) {
	return d.run(ctx, doc, opts, nil)
}

func (d *Driver) run(ctx context.Context, doc interfaces.Document, opts RunOptions, progress func(interfaces.Progress)) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	outcome := &Outcome{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		DryRun:    opts.DryRun,
		StartedAt: d.now(),
	}
	defer func() {
		outcome.FinishedAt = d.now()
	}()

	if doc == nil {
		return outcome, setupError(ErrDocumentRequired)
	}
	outcome.Document = doc.Name()

	mode, ok := interfaces.ParseSyncMode(string(opts.Mode))
	if !ok {
		return outcome, setupError(fmt.Errorf("%w: %q", ErrModeInvalid, opts.Mode))
	}
	outcome.Mode = string(mode)

	ctx = logging.ContextWithRun(ctx, outcome.RunID, map[string]any{
		"document": outcome.Document,
		"mode":     outcome.Mode,
	})
	logger := d.logger.WithContext(ctx)

	if err := d.setup(ctx, opts); err != nil {
		logger.Error("docsync.sync.setup_failed", "error", err)
		return outcome, err
	}

	regions := doc.Regions()
	outcome.Total = classify.Count(regions, d.styles, mode)
	logger.Info("docsync.sync.start", "total", outcome.Total, "dry_run", opts.DryRun)

	s := newSession(d, opts, mode, outcome, logger, progress)
	s.report()

	builder := hierarchy.NewBuilder(d.styles, mode, s, hierarchy.WithLogger(logger))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return d.aborted(logger, outcome, err)
		}
		if err := builder.Feed(ctx, region); err != nil {
			return d.aborted(logger, outcome, err)
		}
	}
	if err := builder.Finish(ctx); err != nil {
		return d.aborted(logger, outcome, err)
	}

	if outcome.ErrorCount > 0 {
		err := partialFailure(outcome)
		logger.Warn("docsync.sync.partial_failure", "processed", outcome.ItemsProcessed, "errors", outcome.ErrorCount)
		return outcome, err
	}
	logger.Info("docsync.sync.completed", "processed", outcome.ItemsProcessed, "created", outcome.Created, "updated", outcome.Updated)
	return outcome, nil
}

func (d *Driver) setup(ctx context.Context, opts RunOptions) error {
	if opts.DryRun {
		return nil
	}
	if d.client == nil {
		return setupError(ErrClientRequired)
	}
	ok, err := d.client.Authenticate(ctx, opts.Username, opts.Password)
	if err != nil {
		return setupError(fmt.Errorf("syncer: authenticate: %w", err))
	}
	if !ok {
		return setupError(ErrAuthenticationFailed)
	}
	ok, err = d.client.ConnectToProject(ctx, opts.ProjectID)
	if err != nil {
		return setupError(fmt.Errorf("syncer: connect to project %d: %w", opts.ProjectID, err))
	}
	if !ok {
		return setupError(fmt.Errorf("%w: project %d", ErrProjectUnavailable, opts.ProjectID))
	}
	return nil
}

func (d *Driver) aborted(logger interfaces.Logger, outcome *Outcome, err error) (*Outcome, error) {
	if !IsAborted(err) {
		err = abortError(err)
	}
	logger.Warn("docsync.sync.aborted", "processed", outcome.ItemsProcessed, "errors", outcome.ErrorCount)
	return outcome, err
}

func artifactName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallbackName
}
