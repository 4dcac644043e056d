package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// ListOptions holds the list command flags.
type ListOptions struct {
	ProjectID int
	Target    string
	LocalDSN  string
	User      string
	Password  string
}

// ListedArtifact is one row of the list output.
type ListedArtifact struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	IndentLevel  int       `json:"indent_level,omitempty"`
	ReleaseID    *int      `json:"release_id,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ListResult is the payload printed by the list command.
type ListResult struct {
	Kind      interfaces.ArtifactKind `json:"kind"`
	ProjectID int                     `json:"project_id"`
	Items     []ListedArtifact        `json:"items"`
}

var listKinds = map[string]interfaces.ArtifactKind{
	"requirements": interfaces.KindRequirement,
	"requirement":  interfaces.KindRequirement,
	"tasks":        interfaces.KindTask,
	"task":         interfaces.KindTask,
	"releases":     interfaces.KindRelease,
	"release":      interfaces.KindRelease,
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:           "list <requirements|tasks|releases>",
		Short:         "List the artifacts of a project",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.ProjectID, "project", "p", 0, "project id (defaults to config)")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "remote | local")
	cmd.Flags().StringVar(&opts.LocalDSN, "dsn", "", "SQLite DSN used by the local target")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "service user name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "service password (or "+PasswordEnv+")")

	return cmd
}

func runList(cmd *cobra.Command, rootOpts *RootOptions, opts *ListOptions, kindArg string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	kind, ok := listKinds[strings.ToLower(strings.TrimSpace(kindArg))]
	if !ok {
		return fail(formatter, "E_INVALID", NewExitError(ExitCommandError, fmt.Sprintf("unknown artifact kind %q", kindArg)))
	}

	cfg, err := loadConfig(rootOpts.Config)
	if err != nil {
		return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "load config", err))
	}
	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.Project.ID = opts.ProjectID
	}
	if flags.Changed("target") {
		cfg.Sync.Target = opts.Target
	}
	if flags.Changed("dsn") {
		cfg.Sync.LocalDSN = opts.LocalDSN
	}
	cfg.Sync.Target = strings.ToLower(strings.TrimSpace(cfg.Sync.Target))
	applyCredentials(&cfg, opts.User, opts.Password)
	if err := cfg.Validate(); err != nil {
		return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "invalid settings", err))
	}

	provider, err := newProvider(cfg.Logging, rootOpts.Verbose, formatter.ErrWriter)
	if err != nil {
		return fail(formatter, "E_CONFIG", WrapExitError(ExitCommandError, "configure logging", err))
	}
	logger := logging.CommandsLogger(provider)

	ctx := cmd.Context()
	client, err := connector{cfg: cfg, provider: provider}.openSession(ctx)
	if err != nil {
		return fail(formatter, "E_CONNECT", WrapExitError(ExitCommandError, "connect", err))
	}
	defer closeClient(client)

	items, err := listArtifacts(ctx, client, kind)
	if err != nil {
		logger.Error("docsync.command.list.failed", "kind", kind, "error", err)
		return fail(formatter, "E_LIST", WrapExitError(ExitCommandError, "list "+string(kind), err))
	}
	logger.Debug("docsync.command.list.completed", "kind", kind, "count", len(items))

	result := ListResult{Kind: kind, ProjectID: cfg.Project.ID, Items: items}
	return formatter.Success(result, func(w io.Writer) { writeList(w, result) })
}

func listArtifacts(ctx context.Context, client interfaces.ArtifactClient, kind interfaces.ArtifactKind) ([]ListedArtifact, error) {
	items := []ListedArtifact{}
	switch kind {
	case interfaces.KindRequirement:
		records, err := client.FetchRequirements(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			items = append(items, ListedArtifact{ID: r.ID, Name: r.Name, IndentLevel: r.IndentLevel, LastModified: r.LastModified})
		}
	case interfaces.KindTask:
		records, err := client.FetchTasks(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			items = append(items, ListedArtifact{ID: r.ID, Name: r.Name, ReleaseID: r.ReleaseID, LastModified: r.LastModified})
		}
	case interfaces.KindRelease:
		records, err := client.FetchReleases(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			items = append(items, ListedArtifact{ID: r.ID, Name: r.Name, LastModified: r.LastModified})
		}
	}
	return items, nil
}

func writeList(w io.Writer, result ListResult) {
	if len(result.Items) == 0 {
		fmt.Fprintf(w, "no %s artifacts in project %d\n", result.Kind, result.ProjectID)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tRELEASE\tMODIFIED")
	for _, item := range result.Items {
		level := ""
		if item.IndentLevel > 0 {
			level = fmt.Sprint(item.IndentLevel)
		}
		release := ""
		if item.ReleaseID != nil {
			release = fmt.Sprint(*item.ReleaseID)
		}
		name := strings.Repeat("  ", max(item.IndentLevel-1, 0)) + item.Name
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.ID, name, level, release, item.LastModified.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}
