package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-docsync/internal/runtimeconfig"
	"github.com/goliatone/go-docsync/internal/validation"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

func validRemoteConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Server.BaseURL = "https://tracker.example.com/services"
	cfg.Server.Username = "author"
	cfg.Project.ID = 7
	return cfg
}

func TestConfigValidate_AcceptsRemoteDefaults(t *testing.T) {
	if err := validRemoteConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresServerForRemoteTarget(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Server.BaseURL = "tracker.example.com"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestConfigValidate_LocalTargetNeedsDSNOnly(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Project.ID = 1
	cfg.Sync.Target = runtimeconfig.TargetLocal

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLocalDSNRequired) {
		t.Fatalf("expected ErrLocalDSNRequired, got %v", err)
	}

	cfg.Sync.LocalDSN = "file:docsync.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsUnknownTarget(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Sync.Target = "ftp"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrTargetInvalid) {
		t.Fatalf("expected ErrTargetInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownMode(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Sync.Mode = "bugs"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrModeInvalid) {
		t.Fatalf("expected ErrModeInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresProject(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Project.ID = 0

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected project validation error")
	}
}

func TestConfigValidate_ModeStyles(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Styles.Requirements = nil
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrRequirementStyles) {
		t.Fatalf("expected ErrRequirementStyles, got %v", err)
	}

	cfg.Styles.UseOutlineLevels = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("outline levels should satisfy requirements mode: %v", err)
	}

	cfg = validRemoteConfig()
	cfg.Sync.Mode = interfaces.ModeTestCases
	cfg.Styles.TestCase = " "
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrTestCaseStyleRequired) {
		t.Fatalf("expected ErrTestCaseStyleRequired, got %v", err)
	}

	cfg = validRemoteConfig()
	cfg.Sync.Mode = interfaces.ModeTasks
	cfg.Styles.Task = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrTaskStyleRequired) {
		t.Fatalf("expected ErrTaskStyleRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := validRemoteConfig()
	cfg.Logging.Level = "loud"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsync.yaml")
	body := `
server:
  base_url: https://tracker.example.com/services
  username: author
  timeout: 5s
project:
  id: 12
sync:
  mode: test-cases
styles:
  test_folder: Title
  test_case: Subtitle
  steps:
    description: 2
    expected_result: 3
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Fatalf("expected timeout 5s, got %s", cfg.Server.Timeout)
	}
	if cfg.Project.ID != 12 || cfg.Sync.Mode != interfaces.ModeTestCases {
		t.Fatalf("unexpected project/mode: %+v %+v", cfg.Project, cfg.Sync)
	}
	if cfg.Styles.TestFolder != "Title" || cfg.Styles.TestCase != "Subtitle" {
		t.Fatalf("unexpected styles: %+v", cfg.Styles)
	}
	if cfg.Styles.Steps.Description != 2 || cfg.Styles.Steps.ExpectedResult != 3 {
		t.Fatalf("unexpected step columns: %+v", cfg.Styles.Steps)
	}
	if cfg.Sync.Target != runtimeconfig.TargetRemote {
		t.Fatalf("expected default target to survive, got %q", cfg.Sync.Target)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default logging format, got %q", cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}

func TestParse_RejectsUnknownStyleRole(t *testing.T) {
	_, err := runtimeconfig.Parse([]byte("styles:\n  test_cases: Heading 2\n"))
	if !errors.Is(err, validation.ErrSectionInvalid) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestParse_RejectsNegativeStepColumn(t *testing.T) {
	_, err := runtimeconfig.Parse([]byte("styles:\n  steps:\n    description: -1\n"))
	if !errors.Is(err, validation.ErrSectionInvalid) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, runtimeconfig.ErrConfigRead) {
		t.Fatalf("expected ErrConfigRead, got %v", err)
	}
}

func TestConfigValidateRun_IgnoresServerSettings(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Project.ID = 3
	if err := cfg.ValidateRun(); err != nil {
		t.Fatalf("ValidateRun() returned unexpected error: %v", err)
	}
	cfg.Project.ID = 0
	if err := cfg.ValidateRun(); err == nil {
		t.Fatalf("expected project error")
	}
}
