package logging

import (
	"context"
	"maps"
)

type contextKey struct{}

// ContextWithRun stores the run identifier (and any extra fields) on ctx so
// loggers derived with WithContext can pick them up.
func ContextWithRun(ctx context.Context, runID string, extra map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(extra)+1)
	}
	maps.Copy(merged, extra)
	if runID != "" {
		merged["run_id"] = runID
	}
	return context.WithValue(ctx, contextKey{}, merged)
}

// ContextFields returns a copy of the fields stored by ContextWithRun.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(contextKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// RunID extracts the run identifier stored on ctx.
func RunID(ctx context.Context) string {
	id, _ := ContextFields(ctx)["run_id"].(string)
	return id
}
