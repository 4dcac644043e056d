package runtimeconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docsync/internal/validation"
)

var ErrConfigRead = errors.New("docsync config: unable to read config")

//go:embed styles.schema.json
var stylesSchemaJSON []byte

var (
	stylesSchemaOnce sync.Once
	stylesSchema     *validation.Schema
	stylesSchemaErr  error
)

func compiledStylesSchema() (*validation.Schema, error) {
	stylesSchemaOnce.Do(func() {
		stylesSchema, stylesSchemaErr = validation.Compile("styles", stylesSchemaJSON)
	})
	return stylesSchema, stylesSchemaErr
}

// Load reads a YAML config file layered over DefaultConfig. The styles
// section is checked against the embedded schema before decoding so typos in
// role names fail loudly instead of being dropped.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes layered over DefaultConfig.
func Parse(raw []byte) (Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("docsync config: decode: %w", err)
	}
	if styles, ok := doc["styles"]; ok && styles != nil {
		schema, err := compiledStylesSchema()
		if err != nil {
			return Config{}, err
		}
		if err := schema.Validate(styles); err != nil {
			return Config{}, fmt.Errorf("docsync config: styles: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("docsync config: decode: %w", err)
	}
	return cfg, nil
}
