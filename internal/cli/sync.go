package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	synccmd "github.com/goliatone/go-docsync/internal/commands/sync"
	"github.com/goliatone/go-docsync/internal/hostdoc/markdown"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/runtimeconfig"
	"github.com/goliatone/go-docsync/internal/syncer"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// SyncOptions holds the sync command flags. Unset flags leave the document
// front matter and then the config file in charge.
type SyncOptions struct {
	ProjectID      int
	Mode           string
	Target         string
	LocalDSN       string
	DryRun         bool
	User           string
	Password       string
	AttachmentHint string
}

// SyncResult is the payload printed after a run.
type SyncResult struct {
	Document string          `json:"document"`
	Target   string          `json:"target"`
	Outcome  *syncer.Outcome `json:"outcome"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync <document>",
		Short: "Create or update artifacts from a Markdown document",
		Long: `Sync reads a Markdown document, classifies its headings with the
configured style mapping and writes one artifact per heading. Identities are
kept in a sidecar file next to the document (<document>.docsync.yaml).

Interrupting the command stops the run after the item in flight; artifacts
written so far stay and their identities are saved.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.ProjectID, "project", "p", 0, "project id (defaults to front matter, then config)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "requirements | test-cases | tasks")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "remote | local")
	cmd.Flags().StringVar(&opts.LocalDSN, "dsn", "", "SQLite DSN used by the local target")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "classify and count without writing")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "service user name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "service password (or "+PasswordEnv+")")
	cmd.Flags().StringVar(&opts.AttachmentHint, "attachment-hint", "", "route segment used in attachment links")

	return cmd
}

func runSync(cmd *cobra.Command, rootOpts *RootOptions, opts *SyncOptions, path string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, err := loadConfig(rootOpts.Config)
	if err != nil {
		return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "load config", err))
	}

	doc, err := markdown.Load(path)
	if err != nil {
		return fail(formatter, "E_DOCUMENT", WrapExitError(ExitCommandError, "load document", err))
	}
	mergeSyncSettings(&cfg, doc.Meta(), cmd, opts)
	applyCredentials(&cfg, opts.User, opts.Password)

	if !cfg.Sync.DryRun {
		if err := cfg.Validate(); err != nil {
			return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "invalid settings", err))
		}
	}

	provider, err := newProvider(cfg.Logging, rootOpts.Verbose, formatter.ErrWriter)
	if err != nil {
		return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "configure logging", err))
	}

	var outcome *syncer.Outcome
	conn := connector{cfg: cfg, provider: provider}
	handler, err := synccmd.RegisterSyncCommands(nil, synccmd.Dependencies{
		Load: func(context.Context, string) (synccmd.Document, error) {
			return doc, nil
		},
		Connect:      conn.connect,
		Styles:       cfg.Styles,
		DriverLogger: logging.SyncLogger(provider),
		Progress: func(p interfaces.Progress) {
			formatter.VerboseLog("progress %d/%d", p.Current, p.Total)
		},
		Report: func(_ synccmd.SyncDocumentCommand, o *syncer.Outcome) {
			outcome = o
		},
	}, provider)
	if err != nil {
		return fail(formatter, "E_INTERNAL", WrapExitError(ExitCommandError, "build sync handler", err))
	}

	msg := synccmd.SyncDocumentCommand{
		Document:       path,
		ProjectID:      cfg.Project.ID,
		Mode:           string(cfg.Sync.Mode),
		Target:         cfg.Sync.Target,
		DryRun:         cfg.Sync.DryRun,
		AttachmentHint: opts.AttachmentHint,
		Username:       cfg.Server.Username,
		Password:       cfg.Server.Password,
	}
	runErr := handler.Execute(cmd.Context(), msg)

	runFinished := runErr == nil || syncer.IsAborted(runErr) || errors.Is(runErr, syncer.ErrPartialFailure)
	if outcome == nil || !runFinished {
		if goerrors.IsCategory(runErr, goerrors.CategoryValidation) && outcome == nil {
			return fail(formatter, "E_INVALID", WrapExitError(ExitCommandError, "invalid sync request", runErr))
		}
		return fail(formatter, "E_SYNC", WrapExitError(ExitCommandError, "sync failed", runErr))
	}

	result := SyncResult{Document: doc.Name(), Target: msg.Target, Outcome: outcome}
	if result.Target == "" {
		result.Target = runtimeconfig.TargetRemote
	}
	if err := formatter.Success(result, func(w io.Writer) { writeOutcome(w, result) }); err != nil {
		return err
	}

	switch {
	case runErr == nil:
		return nil
	case syncer.IsAborted(runErr):
		return WrapExitError(ExitFailure, "sync aborted", runErr)
	default:
		return WrapExitError(ExitFailure, "sync finished with errors", runErr)
	}
}

// mergeSyncSettings layers flags over front matter over the config file.
func mergeSyncSettings(cfg *runtimeconfig.Config, meta markdown.Meta, cmd *cobra.Command, opts *SyncOptions) {
	if meta.Project > 0 {
		cfg.Project.ID = meta.Project
	}
	if mode := strings.TrimSpace(meta.Mode); mode != "" {
		cfg.Sync.Mode = interfaces.SyncMode(mode)
	}

	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.Project.ID = opts.ProjectID
	}
	if flags.Changed("mode") {
		cfg.Sync.Mode = interfaces.SyncMode(opts.Mode)
	}
	if flags.Changed("target") {
		cfg.Sync.Target = opts.Target
	}
	if flags.Changed("dsn") {
		cfg.Sync.LocalDSN = opts.LocalDSN
	}
	if flags.Changed("dry-run") {
		cfg.Sync.DryRun = opts.DryRun
	}
	cfg.Sync.Target = strings.ToLower(strings.TrimSpace(cfg.Sync.Target))
	if mode, ok := interfaces.ParseSyncMode(string(cfg.Sync.Mode)); ok {
		cfg.Sync.Mode = mode
	}
}

func writeOutcome(w io.Writer, result SyncResult) {
	o := result.Outcome
	verb := "synced"
	if o.DryRun {
		verb = "planned"
	}
	fmt.Fprintf(w, "%s %s (%s, %s target): %d of %d items\n", verb, result.Document, o.Mode, result.Target, o.ItemsProcessed, o.Total)
	fmt.Fprintf(w, "  created %d, updated %d, reused %d, attachments %d, errors %d\n",
		o.Created, o.Updated, o.Reused, o.Attachments, o.ErrorCount)
	for _, entry := range o.Log {
		fmt.Fprintf(w, "  failed %s %q: %s\n", entry.Kind, entry.Item, entry.Error)
	}
}

// fail prints err and returns it so cobra exits with its code.
func fail(f *OutputFormatter, code string, err *ExitError) error {
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return err
}
