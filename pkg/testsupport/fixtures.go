package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads a file relative to the calling package.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// CopyFixture copies a fixture into a fresh temp directory and returns the
// new path, so tests can mutate it.
func CopyFixture(t testing.TB, path string) string {
	t.Helper()
	data, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
	target := filepath.Join(t.TempDir(), filepath.Base(path))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		t.Fatalf("write fixture copy: %v", err)
	}
	return target
}
