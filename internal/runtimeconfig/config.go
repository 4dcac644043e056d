package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

var (
	ErrModeInvalid            = errors.New("docsync config: sync mode is invalid")
	ErrTargetInvalid          = errors.New("docsync config: sync target must be remote or local")
	ErrLocalDSNRequired       = errors.New("docsync config: local target requires a dsn")
	ErrRequirementStyles      = errors.New("docsync config: requirements mode needs at least one requirement style")
	ErrTestCaseStyleRequired  = errors.New("docsync config: test-cases mode needs a test case style")
	ErrTaskStyleRequired      = errors.New("docsync config: tasks mode needs a task style")
	ErrLoggingProviderUnknown = errors.New("docsync config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("docsync config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("docsync config: logging format is invalid")
)

const (
	TargetRemote = "remote"
	TargetLocal  = "local"
)

// Config aggregates everything one sync session needs. Loading and saving is
// the host's business; the engine only reads it.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Project ProjectConfig           `yaml:"project"`
	Sync    SyncConfig              `yaml:"sync"`
	Styles  interfaces.StyleMapping `yaml:"styles"`
	Logging LoggingConfig           `yaml:"logging"`
}

// ServerConfig points at the remote artifact service.
type ServerConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	// AttachmentRoute is the go-urlkit path template used to build attachment
	// URLs, e.g. "/:project_id/:hint/:attachment_id".
	AttachmentRoute string `yaml:"attachment_route"`
}

// ProjectConfig selects the remote project.
type ProjectConfig struct {
	ID int `yaml:"id"`
}

// SyncConfig controls what a run produces and where it writes.
type SyncConfig struct {
	Mode     interfaces.SyncMode `yaml:"mode"`
	Target   string              `yaml:"target"`
	LocalDSN string              `yaml:"local_dsn"`
	DryRun   bool                `yaml:"dry_run"`
}

// LoggingConfig selects the logger provider.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns a remote requirements session with stock heading
// styles.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Timeout:         30 * time.Second,
			AttachmentRoute: "/:project_id/:hint/:attachment_id",
		},
		Sync: SyncConfig{
			Mode:   interfaces.ModeRequirements,
			Target: TargetRemote,
		},
		Styles: interfaces.DefaultStyleMapping(),
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate checks cross-field consistency. Remote credentials are only
// required for the remote target.
func (cfg Config) Validate() error {
	if _, ok := interfaces.ParseSyncMode(string(cfg.Sync.Mode)); !ok {
		return fmt.Errorf("%w: %q", ErrModeInvalid, cfg.Sync.Mode)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Sync.Target)) {
	case TargetRemote, "":
		if err := validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.BaseURL, validation.Required, validation.By(absoluteURL)),
			validation.Field(&cfg.Server.Username, validation.Required),
			validation.Field(&cfg.Server.Timeout, validation.Min(time.Duration(0))),
		); err != nil {
			return fmt.Errorf("docsync config: server: %w", err)
		}
	case TargetLocal:
		if strings.TrimSpace(cfg.Sync.LocalDSN) == "" {
			return ErrLocalDSNRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrTargetInvalid, cfg.Sync.Target)
	}

	return cfg.ValidateRun()
}

// ValidateRun checks the settings a sync pass needs regardless of how the
// artifact client is obtained.
func (cfg Config) ValidateRun() error {
	if _, ok := interfaces.ParseSyncMode(string(cfg.Sync.Mode)); !ok {
		return fmt.Errorf("%w: %q", ErrModeInvalid, cfg.Sync.Mode)
	}
	if err := validation.ValidateStruct(&cfg.Project,
		validation.Field(&cfg.Project.ID, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("docsync config: project: %w", err)
	}

	if err := cfg.validateStyles(); err != nil {
		return err
	}
	return cfg.validateLogging()
}

func (cfg Config) validateStyles() error {
	mode, _ := interfaces.ParseSyncMode(string(cfg.Sync.Mode))
	styles := cfg.Styles
	switch mode {
	case interfaces.ModeRequirements:
		if len(styles.Requirements) == 0 && !styles.UseOutlineLevels {
			return ErrRequirementStyles
		}
	case interfaces.ModeTestCases:
		if strings.TrimSpace(styles.TestCase) == "" {
			return ErrTestCaseStyleRequired
		}
	case interfaces.ModeTasks:
		if strings.TrimSpace(styles.Task) == "" && !styles.UseOutlineLevels {
			return ErrTaskStyleRequired
		}
	}
	return nil
}

func (cfg Config) validateLogging() error {
	provider := strings.ToLower(strings.TrimSpace(cfg.Logging.Provider))
	switch provider {
	case "", "gologger", "console":
	case "none", "noop":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, cfg.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "", "json", "console", "pretty":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, cfg.Logging.Format)
	}
	return nil
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validation.NewError("docsync.config.base_url_invalid", "must be an absolute http(s) url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("docsync.config.base_url_scheme", "must use http or https")
	}
	return nil
}
