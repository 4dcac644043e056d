// Package synccmd exposes a document sync run as a go-command handler.
package synccmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-docsync/internal/commands"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/syncer"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const syncOperation = "sync.document"

var (
	ErrLoaderRequired        = errors.New("synccmd: document loader is required")
	ErrClientFactoryRequired = errors.New("synccmd: client factory is required")
)

// Document is a host document whose side channel can be persisted after a
// run.
type Document interface {
	interfaces.Document
	Save() error
}

// DocumentLoader opens the document named by a command.
type DocumentLoader func(ctx context.Context, name string) (Document, error)

// ClientFactory connects to the artifact service for a target. Clients that
// implement io.Closer are closed when the run ends.
type ClientFactory func(ctx context.Context, target string) (interfaces.ArtifactClient, error)

// Dependencies wires the handler's collaborators.
type Dependencies struct {
	Load    DocumentLoader
	Connect ClientFactory
	Styles  interfaces.StyleMapping
	// DriverLogger receives the sync driver's entries.
	DriverLogger interfaces.Logger
	// Progress, when set, receives every progress update of the run.
	Progress func(interfaces.Progress)
	// Report, when set, receives the outcome of every run that started,
	// including failed and aborted ones.
	Report func(SyncDocumentCommand, *syncer.Outcome)
}

var _ command.Commander[SyncDocumentCommand] = (*SyncDocumentHandler)(nil)

// SyncDocumentHandler runs one sync pass per command.
type SyncDocumentHandler struct {
	inner *commands.Handler[SyncDocumentCommand]
}

// NewSyncDocumentHandler validates deps and builds the handler.
func NewSyncDocumentHandler(deps Dependencies, logger interfaces.Logger, opts ...commands.HandlerOption[SyncDocumentCommand]) (*SyncDocumentHandler, error) {
	if deps.Load == nil {
		return nil, ErrLoaderRequired
	}
	if deps.Connect == nil {
		return nil, ErrClientFactoryRequired
	}
	logger = logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg SyncDocumentCommand) error {
		return execute(ctx, deps, logger, msg)
	}

	handlerOpts := []commands.HandlerOption[SyncDocumentCommand]{
		commands.WithLogger[SyncDocumentCommand](logger),
		commands.WithOperation[SyncDocumentCommand](syncOperation),
		commands.WithMessageFields(func(msg SyncDocumentCommand) map[string]any {
			fields := map[string]any{
				"document":   msg.Document,
				"project_id": msg.ProjectID,
				"mode":       msg.Mode,
				"target":     target(msg),
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncDocumentCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncDocumentHandler{inner: commands.NewHandler(exec, handlerOpts...)}, nil
}

// Execute satisfies command.Commander[SyncDocumentCommand].
func (h *SyncDocumentHandler) Execute(ctx context.Context, msg SyncDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

func execute(ctx context.Context, deps Dependencies, logger interfaces.Logger, msg SyncDocumentCommand) error {
	doc, err := deps.Load(ctx, strings.TrimSpace(msg.Document))
	if err != nil {
		return fmt.Errorf("synccmd: load %s: %w", msg.Document, err)
	}

	var client interfaces.ArtifactClient
	if !msg.DryRun {
		client, err = deps.Connect(ctx, target(msg))
		if err != nil {
			return fmt.Errorf("synccmd: connect %s: %w", target(msg), err)
		}
		if closer, ok := client.(io.Closer); ok {
			defer func() {
				if cerr := closer.Close(); cerr != nil {
					logger.Warn("docsync.command.sync.close_failed", "error", cerr)
				}
			}()
		}
	}

	mode, _ := interfaces.ParseSyncMode(msg.Mode)
	driver := syncer.NewDriver(syncer.DriverConfig{
		Client: client,
		Styles: deps.Styles,
		Logger: deps.DriverLogger,
	})
	run := driver.Start(ctx, doc, syncer.RunOptions{
		ProjectID:      msg.ProjectID,
		Mode:           mode,
		Username:       msg.Username,
		Password:       msg.Password,
		AttachmentHint: msg.AttachmentHint,
		DryRun:         msg.DryRun,
	})
	for progress := range run.Progress() {
		if deps.Progress != nil {
			deps.Progress(progress)
		}
	}
	outcome, runErr := run.Wait()

	// Committed writes stay even when the run stops early, so their
	// identities are persisted too.
	if !msg.DryRun && outcome != nil && outcome.ItemsProcessed > 0 {
		if err := doc.Save(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("synccmd: save side channel: %w", err))
		}
	}

	if outcome != nil {
		logging.WithFields(logger, map[string]any{
			"run_id":          outcome.RunID,
			"items_processed": outcome.ItemsProcessed,
			"error_count":     outcome.ErrorCount,
			"created_count":   outcome.Created,
			"updated_count":   outcome.Updated,
		}).Info("docsync.command.sync.completed")
		if deps.Report != nil {
			deps.Report(msg, outcome)
		}
	}
	return runErr
}

func target(msg SyncDocumentCommand) string {
	if t := strings.TrimSpace(msg.Target); t != "" {
		return t
	}
	return TargetRemote
}
