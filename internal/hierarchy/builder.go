// Package hierarchy folds classified regions into pending artifacts and hands
// each finished artifact to a sink.
package hierarchy

import (
	"context"
	"strings"

	"github.com/goliatone/go-docsync/internal/classify"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/markup"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// PendingArtifact is an artifact being assembled. Once flushed the sink owns
// it exclusively.
type PendingArtifact struct {
	Kind         interfaces.ArtifactKind
	Name         string
	Markup       string
	Attachments  []markup.Attachment
	Steps        []markup.Step
	Level        int
	IndentOffset int
	Side         interfaces.SideChannel
	// Err is set when transcoding failed; the artifact is still flushed so
	// the failure is counted against it.
	Err error
}

// Sink receives finished artifacts. A non-nil error stops the walk.
type Sink interface {
	Accept(ctx context.Context, artifact *PendingArtifact) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, artifact *PendingArtifact) error

func (f SinkFunc) Accept(ctx context.Context, artifact *PendingArtifact) error {
	return f(ctx, artifact)
}

// Builder is the per-run state machine. It is idle until the first boundary
// and accumulating afterwards.
type Builder struct {
	mapping       interfaces.StyleMapping
	mode          interfaces.SyncMode
	sink          Sink
	transcoder    *markup.Transcoder
	logger        interfaces.Logger
	current       *PendingArtifact
	previousLevel int
	visited       map[string]struct{}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithTranscoder replaces the default transcoder.
func WithTranscoder(t *markup.Transcoder) Option {
	return func(b *Builder) {
		if t != nil {
			b.transcoder = t
		}
	}
}

// NewBuilder creates a builder for one run.
func NewBuilder(mapping interfaces.StyleMapping, mode interfaces.SyncMode, sink Sink, opts ...Option) *Builder {
	b := &Builder{
		mapping:       mapping,
		mode:          mode,
		sink:          sink,
		previousLevel: 1,
		visited:       map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.logger = logging.OrNoOp(b.logger)
	if b.transcoder == nil {
		b.transcoder = markup.NewTranscoder(markup.WithLogger(b.logger))
	}
	return b
}

// Feed processes one region. Only a sink error is returned.
func (b *Builder) Feed(ctx context.Context, region interfaces.Region) error {
	role := classify.Classify(region, b.mapping, b.mode)

	switch role.Kind {
	case classify.RoleIgnored:
		return nil
	case classify.RoleBoundary:
		return b.boundary(ctx, region, role)
	case classify.RoleTable:
		b.table(region.Table())
	default:
		b.content(region)
	}
	return nil
}

// Finish flushes the last artifact when it has a name or content and clears
// the per-run table bookkeeping.
func (b *Builder) Finish(ctx context.Context) error {
	defer func() {
		b.visited = map[string]struct{}{}
		b.previousLevel = 1
	}()
	if b.current == nil {
		return nil
	}
	if b.current.Name == "" && b.transcoder.Empty() && len(b.current.Steps) == 0 {
		b.current = nil
		return nil
	}
	return b.flush(ctx)
}

// Current returns the artifact being accumulated, or nil when idle.
func (b *Builder) Current() *PendingArtifact {
	return b.current
}

func (b *Builder) boundary(ctx context.Context, region interfaces.Region, role classify.Role) error {
	if b.current != nil && b.current.Name != "" {
		if err := b.flush(ctx); err != nil {
			return err
		}
	}
	b.transcoder.Reset()
	b.current = &PendingArtifact{
		Kind:         role.Artifact,
		Name:         strings.TrimSpace(markup.Sanitize(region.Text())),
		Level:        role.Level,
		IndentOffset: role.Level - b.previousLevel,
		Side:         region.SideChannel(),
	}
	b.previousLevel = role.Level
	return nil
}

func (b *Builder) table(table interfaces.Table) {
	if table == nil {
		return
	}
	key := table.Key()
	if key != "" {
		if _, seen := b.visited[key]; seen {
			return
		}
		b.visited[key] = struct{}{}
	}
	if b.current == nil {
		b.logger.Debug("docsync.hierarchy.table_discarded", "table", key)
		return
	}
	if b.current.Err != nil {
		return
	}

	if b.stepTable() {
		steps, err := b.transcoder.Steps(table, b.mapping.Steps)
		if err != nil {
			b.current.Err = err
			return
		}
		b.current.Steps = append(b.current.Steps, steps...)
		return
	}
	if err := b.transcoder.Table(table); err != nil {
		b.current.Err = err
	}
}

func (b *Builder) stepTable() bool {
	return b.mode == interfaces.ModeTestCases &&
		b.mapping.Steps.Enabled() &&
		b.current.Kind == interfaces.KindTestCase
}

func (b *Builder) content(region interfaces.Region) {
	if b.current == nil {
		return
	}
	if b.current.Err != nil {
		return
	}
	if err := b.transcoder.Paragraph(region); err != nil {
		b.current.Err = err
	}
}

func (b *Builder) flush(ctx context.Context) error {
	artifact := b.current
	b.current = nil
	artifact.Markup = b.transcoder.Markup()
	artifact.Attachments = b.transcoder.Attachments()
	if b.sink == nil {
		return nil
	}
	return b.sink.Accept(ctx, artifact)
}
