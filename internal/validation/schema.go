// Package validation checks decoded config sections against embedded JSON
// schemas before they are bound to typed structs.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid  = errors.New("validation: schema does not compile")
	ErrSectionInvalid = errors.New("validation: config section rejected")
)

// Issue is one rejected value. Path is the dotted config path, starting with
// the section name.
type Issue struct {
	Path    string
	Message string
}

// SectionError lists every issue found in one section.
type SectionError struct {
	Section string
	Issues  []Issue
}

func (e *SectionError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: invalid", e.Section)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *SectionError) Unwrap() error {
	return ErrSectionInvalid
}

// IssuesOf returns the issues carried by err, or nil.
func IssuesOf(err error) []Issue {
	var sectionErr *SectionError
	if errors.As(err, &sectionErr) {
		return sectionErr.Issues
	}
	return nil
}

// Schema validates one named config section.
type Schema struct {
	section  string
	compiled *jsonschema.Schema
}

// Compile compiles raw as the schema of section.
func Compile(section string, raw []byte) (*Schema, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil, fmt.Errorf("%w: section name is required", ErrSchemaInvalid)
	}
	resource := section + ".schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, section, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, section, err)
	}
	return &Schema{section: section, compiled: compiled}, nil
}

// Section returns the section name the schema guards.
func (s *Schema) Section() string {
	return s.section
}

// Validate checks value, a YAML decoded map or a typed struct. Both go
// through a JSON round trip so YAML integers and struct tags compare alike.
func (s *Schema) Validate(value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return &SectionError{Section: s.section, Issues: []Issue{{Path: s.section, Message: err.Error()}}}
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return &SectionError{Section: s.section, Issues: []Issue{{Path: s.section, Message: err.Error()}}}
	}

	err = s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &SectionError{Section: s.section, Issues: []Issue{{Path: s.section, Message: err.Error()}}}
	}
	issues := s.leaves(verr, nil)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return &SectionError{Section: s.section, Issues: issues}
}

func (s *Schema) leaves(node *jsonschema.ValidationError, out []Issue) []Issue {
	if len(node.Causes) == 0 {
		return append(out, Issue{Path: s.path(node.InstanceLocation), Message: strings.TrimSpace(node.Message)})
	}
	for _, cause := range node.Causes {
		out = s.leaves(cause, out)
	}
	return out
}

// path turns a JSON pointer such as "/steps/description" into
// "styles.steps.description".
func (s *Schema) path(pointer string) string {
	pointer = strings.Trim(strings.TrimSpace(pointer), "/")
	if pointer == "" {
		return s.section
	}
	segments := strings.Split(pointer, "/")
	for i, seg := range segments {
		segments[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
	}
	return s.section + "." + strings.Join(segments, ".")
}
