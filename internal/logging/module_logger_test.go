package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "docsync.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerTagsModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = SyncLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != syncModule {
		t.Fatalf("expected module %s, got %v", syncModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != syncModule {
		t.Fatalf("expected module field, got %v", rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "  ")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestWithArtifactContextSkipsBlankValues(t *testing.T) {
	rec := &recordingLogger{}

	_ = WithArtifactContext(rec, interfaces.KindRequirement, "  ", "create")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldArtifactKind] != "requirement" || got[fieldArtifactAction] != "create" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldArtifactName]; ok {
		t.Fatalf("blank name should be skipped: %v", got)
	}
}

func TestContextWithRunMergesFields(t *testing.T) {
	ctx := ContextWithRun(context.Background(), "run-1", map[string]any{"document": "plan.md"})
	ctx = ContextWithRun(ctx, "", map[string]any{"mode": "tasks"})

	fields := ContextFields(ctx)
	if fields["run_id"] != "run-1" || fields["document"] != "plan.md" || fields["mode"] != "tasks" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if RunID(ctx) != "run-1" {
		t.Fatalf("expected run id, got %q", RunID(ctx))
	}
	if RunID(context.Background()) != "" {
		t.Fatalf("expected empty run id")
	}
}
