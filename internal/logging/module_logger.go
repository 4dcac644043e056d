package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const (
	rootModule     = "docsync"
	syncModule     = "docsync.sync"
	remoteModule   = "docsync.remote"
	commandsModule = "docsync.commands"
	hostModule     = "docsync.host"
)

const (
	fieldArtifactKind   = "artifact_kind"
	fieldArtifactName   = "artifact_name"
	fieldArtifactAction = "sync_action"
)

// ModuleLogger resolves a logger for module from provider and tags it with a
// "module" field. A nil provider yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = rootModule
	}

	var logger interfaces.Logger = noopLogger{}
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// SyncLogger is the namespace used by the sync driver.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// RemoteLogger is the namespace used by remote artifact clients.
func RemoteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, remoteModule)
}

// CommandsLogger is the namespace used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// HostLogger is the namespace used by host document adapters.
func HostLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, hostModule)
}

// WithArtifactContext tags logger with the artifact being synced. Blank
// values are skipped.
func WithArtifactContext(logger interfaces.Logger, kind interfaces.ArtifactKind, name, action string) interfaces.Logger {
	fields := map[string]any{}
	if kind != "" {
		fields[fieldArtifactKind] = string(kind)
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		fields[fieldArtifactName] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldArtifactAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
