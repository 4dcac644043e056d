package markdown

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoSidecarPath  = errors.New("markdown: document has no sidecar path")
	ErrSidecarInvalid = errors.New("markdown: sidecar is invalid")
)

// Sidecar holds the side-channel fields of every heading in a document.
type Sidecar struct {
	Document string                 `yaml:"document"`
	Nodes    map[string]SidecarNode `yaml:"nodes"`
}

// SidecarNode is one heading's fields. Name is informational.
type SidecarNode struct {
	Name     string `yaml:"name,omitempty"`
	Identity string `yaml:"identity,omitempty"`
	Stamp    string `yaml:"stamp,omitempty"`
}

// ReadSidecar loads path. A missing file yields an empty sidecar.
func ReadSidecar(path string) (*Sidecar, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Sidecar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("markdown: read sidecar: %w", err)
	}
	var sidecar Sidecar
	if err := yaml.Unmarshal(raw, &sidecar); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSidecarInvalid, path, err)
	}
	return &sidecar, nil
}

// Write stores the sidecar through a temp file and rename.
func (s *Sidecar) Write(path string) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("markdown: encode sidecar: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docsync-*")
	if err != nil {
		return fmt.Errorf("markdown: write sidecar: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("markdown: write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("markdown: write sidecar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("markdown: write sidecar: %w", err)
	}
	return nil
}

func (s *Sidecar) lookup(key string) SidecarNode {
	if s == nil || s.Nodes == nil {
		return SidecarNode{}
	}
	return s.Nodes[key]
}
