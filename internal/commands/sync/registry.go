package synccmd

import (
	"github.com/goliatone/go-docsync/internal/commands"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// RegisterSyncCommands builds the sync handler and registers it with reg
// when one is supplied.
func RegisterSyncCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, opts ...commands.HandlerOption[SyncDocumentCommand]) (*SyncDocumentHandler, error) {
	handler, err := NewSyncDocumentHandler(deps, commands.CommandLogger(provider, "sync"), opts...)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		if err := reg.RegisterCommand(handler); err != nil {
			return nil, err
		}
	}
	return handler, nil
}
