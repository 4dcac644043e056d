// Package fixtures holds test doubles shared by command packages.
package fixtures

import "errors"

// ErrRegistryClosed is returned by a RecordingRegistry after Close.
var ErrRegistryClosed = errors.New("fixtures: registry closed")

// RecordingRegistry captures registered command handlers.
type RecordingRegistry struct {
	Handlers []any
	closed   bool
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{Handlers: make([]any, 0)}
}

// RegisterCommand records handler.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.closed {
		return ErrRegistryClosed
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}

// Close makes later registrations fail.
func (r *RecordingRegistry) Close() {
	r.closed = true
}
