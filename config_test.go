package docsync_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	docsync "github.com/goliatone/go-docsync"
)

func TestDefaultConfigNeedsServerForRemoteTarget(t *testing.T) {
	cfg := docsync.DefaultConfig()
	cfg.Project.ID = 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected remote target without base url to fail")
	}
}

func TestConfigValidateLocalTargetNeedsDSN(t *testing.T) {
	cfg := docsync.DefaultConfig()
	cfg.Project.ID = 1
	cfg.Sync.Target = docsync.TargetLocal
	if err := cfg.Validate(); !errors.Is(err, docsync.ErrLocalDSNRequired) {
		t.Fatalf("expected ErrLocalDSNRequired, got %v", err)
	}
}

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsync.yaml")
	raw := "project:\n  id: 12\nsync:\n  mode: tasks\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := docsync.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Project.ID != 12 || cfg.Sync.Mode != docsync.ModeTasks {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Sync.Target != docsync.TargetRemote || len(cfg.Styles.Requirements) == 0 {
		t.Fatalf("expected defaults to survive, got %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := docsync.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, docsync.ErrConfigRead) {
		t.Fatalf("expected ErrConfigRead, got %v", err)
	}
}
