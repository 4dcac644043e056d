package docsync_test

import (
	"context"
	"errors"
	"testing"

	docsync "github.com/goliatone/go-docsync"
	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/internal/localstore"
	"github.com/goliatone/go-docsync/pkg/testsupport"
)

func localConfig(name string) docsync.Config {
	cfg := docsync.DefaultConfig()
	cfg.Project.ID = 5
	cfg.Sync.Target = docsync.TargetLocal
	cfg.Sync.LocalDSN = testsupport.MemoryDSN(name)
	cfg.Logging.Provider = "none"
	return cfg
}

func sampleDocument() *memdoc.Document {
	return memdoc.New("plan.md",
		memdoc.Styled("Heading 1", "Checkout"),
		memdoc.Para("Customers pay by card."),
		memdoc.Styled("Heading 2", "Refunds"),
	)
}

func TestModuleSyncsIntoLocalTarget(t *testing.T) {
	module, err := docsync.New(localConfig("module_local_target"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	doc := sampleDocument()
	outcome, err := module.Sync(context.Background(), doc)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if outcome.Created != 2 || outcome.ItemsProcessed != 2 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	outcome, err = module.Sync(context.Background(), doc)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if outcome.Updated != 2 || outcome.Created != 0 {
		t.Fatalf("expected updates on second pass, got %+v", outcome)
	}
}

func TestModuleStartStreamsProgress(t *testing.T) {
	module, err := docsync.New(localConfig("module_start"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	run, err := module.Start(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var last docsync.Progress
	for p := range run.Progress() {
		last = p
	}
	if _, err := run.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if last.Current != 2 || last.Total != 2 {
		t.Fatalf("expected final progress 2/2, got %+v", last)
	}
}

func TestModuleWithClientSkipsServerValidation(t *testing.T) {
	store, err := localstore.Open(context.Background(), testsupport.MemoryDSN("module_with_client"), localstore.Config{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := docsync.DefaultConfig()
	cfg.Project.ID = 5
	cfg.Logging.Provider = "none"
	module, err := docsync.New(cfg, docsync.WithClient(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := module.Sync(context.Background(), sampleDocument()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := module.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	requirements, err := store.FetchRequirements(context.Background())
	if err != nil {
		t.Fatalf("external client must stay open after Close: %v", err)
	}
	if len(requirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(requirements))
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := docsync.DefaultConfig()
	cfg.Logging.Provider = "none"
	if _, err := docsync.New(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewClientRejectsUnknownTarget(t *testing.T) {
	_, err := docsync.NewClient(context.Background(), docsync.DefaultConfig(), "ftp", nil)
	if !errors.Is(err, docsync.ErrTargetInvalid) {
		t.Fatalf("expected ErrTargetInvalid, got %v", err)
	}
}

func TestOpenSessionRejectsBadCredentials(t *testing.T) {
	store, err := localstore.Open(context.Background(), testsupport.MemoryDSN("module_session"), localstore.Config{
		Username: "author",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := localConfig("module_session")
	cfg.Server.Username = "author"
	cfg.Server.Password = "wrong"
	if err := docsync.OpenSession(context.Background(), store, cfg); !errors.Is(err, docsync.ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}

	cfg.Server.Password = "secret"
	if err := docsync.OpenSession(context.Background(), store, cfg); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
}
