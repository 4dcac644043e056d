package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct {
	Name string
}

func (testMessage) Type() string { return "docsync.test.message" }

func (m testMessage) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{Name: "a"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{Name: "a"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled to be preserved, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{Name: "a"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, execErr) {
		t.Fatalf("expected original error to be preserved, got %v", err)
	}
}

func TestHandlerKeepsCategorisedErrors(t *testing.T) {
	categorised := goerrors.Wrap(errors.New("bad input"), goerrors.CategoryValidation, "rejected")
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		return categorised
	})

	err := h.Execute(context.Background(), testMessage{Name: "a"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category to survive, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{Name: "a"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var (
		mu    sync.Mutex
		infos []TelemetryInfo
	)
	record := func(_ context.Context, _ testMessage, info TelemetryInfo) {
		mu.Lock()
		defer mu.Unlock()
		infos = append(infos, info)
	}
	fail := false
	h := NewHandler(func(ctx context.Context, msg testMessage) error {
		if fail {
			return errors.New("nope")
		}
		return nil
	},
		WithOperation[testMessage]("test.op"),
		WithMessageFields(func(msg testMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
		WithTelemetry(Telemetry[testMessage](record)),
	)

	if err := h.Execute(context.Background(), testMessage{Name: "first"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fail = true
	if err := h.Execute(context.Background(), testMessage{Name: "second"}); err == nil {
		t.Fatal("expected failure")
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 telemetry calls, got %d", len(infos))
	}
	if infos[0].Status != TelemetryStatusSuccess || infos[0].Fields["name"] != "first" || infos[0].Operation != "test.op" {
		t.Fatalf("unexpected first telemetry %+v", infos[0])
	}
	if infos[1].Status != TelemetryStatusFailed || infos[1].Error == nil {
		t.Fatalf("unexpected second telemetry %+v", infos[1])
	}
	if infos[0].Command != "docsync.test.message" {
		t.Fatalf("unexpected command type %q", infos[0].Command)
	}
}
