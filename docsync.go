// Package docsync synchronizes structured documents into an artifact tracker.
// A Module binds one configuration to an artifact client and runs sync passes
// over host documents.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-docsync/internal/localstore"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/logging/console"
	"github.com/goliatone/go-docsync/internal/logging/gologger"
	"github.com/goliatone/go-docsync/internal/remote"
	"github.com/goliatone/go-docsync/internal/syncer"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type (
	Document       = interfaces.Document
	ArtifactClient = interfaces.ArtifactClient
	StyleMapping   = interfaces.StyleMapping
	SyncMode       = interfaces.SyncMode
	Progress       = interfaces.Progress
	Outcome        = syncer.Outcome
	Run            = syncer.Run
	RunOptions     = syncer.RunOptions
)

const (
	ModeRequirements = interfaces.ModeRequirements
	ModeTestCases    = interfaces.ModeTestCases
	ModeTasks        = interfaces.ModeTasks
)

var (
	ErrArtifactNotFound = interfaces.ErrArtifactNotFound
	ErrAborted          = syncer.ErrAborted
	ErrPartialFailure   = syncer.ErrPartialFailure
	ErrSessionRejected  = errors.New("docsync: session rejected by the artifact service")
)

// Option customises a Module.
type Option func(*Module)

// WithLoggerProvider replaces the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		m.provider = provider
		m.providerSet = true
	}
}

// WithClient makes the module use client instead of connecting to the
// configured target. The caller keeps ownership of client.
func WithClient(client ArtifactClient) Option {
	return func(m *Module) {
		m.client = client
	}
}

// Module is the top level sync runtime facade.
type Module struct {
	cfg         Config
	provider    interfaces.LoggerProvider
	providerSet bool

	mu         sync.Mutex
	client     ArtifactClient
	ownsClient bool
}

// New validates cfg and builds a module. Server settings are not required
// when a client is supplied.
func New(cfg Config, opts ...Option) (*Module, error) {
	m := &Module{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	validate := cfg.Validate
	if m.client != nil {
		validate = cfg.ValidateRun
	}
	if err := validate(); err != nil {
		return nil, err
	}

	if !m.providerSet {
		provider, err := NewLoggerProvider(cfg.Logging, nil)
		if err != nil {
			return nil, err
		}
		m.provider = provider
	}
	return m, nil
}

// Config returns the module configuration.
func (m *Module) Config() Config {
	return m.cfg
}

// LoggerProvider returns the provider module loggers are drawn from. It is
// nil when logging is switched off.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.provider
}

// Client returns the artifact client, connecting to the configured target on
// first use.
func (m *Module) Client(ctx context.Context) (ArtifactClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	client, err := NewClient(ctx, m.cfg, m.cfg.Sync.Target, m.provider)
	if err != nil {
		return nil, err
	}
	m.client = client
	m.ownsClient = true
	return client, nil
}

// Driver builds a sync driver over the module client.
func (m *Module) Driver(ctx context.Context) (*syncer.Driver, error) {
	client, err := m.Client(ctx)
	if err != nil {
		return nil, err
	}
	return syncer.NewDriver(syncer.DriverConfig{
		Client: client,
		Styles: m.cfg.Styles,
		Logger: logging.SyncLogger(m.provider),
	}), nil
}

// RunOptions derives run options from the configuration.
func (m *Module) RunOptions() RunOptions {
	return RunOptions{
		ProjectID: m.cfg.Project.ID,
		Mode:      m.cfg.Sync.Mode,
		Username:  m.cfg.Server.Username,
		Password:  m.cfg.Server.Password,
		DryRun:    m.cfg.Sync.DryRun,
	}
}

// Start launches a sync pass on its own goroutine.
func (m *Module) Start(ctx context.Context, doc Document) (*Run, error) {
	driver, err := m.Driver(ctx)
	if err != nil {
		return nil, err
	}
	return driver.Start(ctx, doc, m.RunOptions()), nil
}

// Sync runs one pass on the calling goroutine.
func (m *Module) Sync(ctx context.Context, doc Document) (*Outcome, error) {
	driver, err := m.Driver(ctx)
	if err != nil {
		return nil, err
	}
	return driver.Run(ctx, doc, m.RunOptions())
}

// Close releases a client the module opened itself.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsClient || m.client == nil {
		return nil
	}
	var err error
	if closer, ok := m.client.(io.Closer); ok {
		err = closer.Close()
	}
	m.client = nil
	m.ownsClient = false
	return err
}

// NewLoggerProvider builds the provider named by cfg. It returns nil when
// logging is switched off. Console output goes to w, or stderr when w is nil.
func NewLoggerProvider(cfg LoggingConfig, w io.Writer) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "none", "noop":
		return nil, nil
	case "console":
		level, ok := console.ParseLevel(cfg.Level)
		if !ok {
			level = console.LevelInfo
		}
		return console.NewProvider(console.Options{Writer: w, Level: &level}), nil
	default:
		provider, err := gologger.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
}

// NewClient connects to target: the remote service, or the SQLite store for
// the local target.
func NewClient(ctx context.Context, cfg Config, target string, provider interfaces.LoggerProvider) (ArtifactClient, error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case TargetLocal:
		store, err := localstore.Open(ctx, cfg.Sync.LocalDSN, localstore.Config{
			Username:        cfg.Server.Username,
			Password:        cfg.Server.Password,
			AttachmentRoute: cfg.Server.AttachmentRoute,
			Logger:          logging.ModuleLogger(provider, "docsync.localstore"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case TargetRemote, "":
		client, err := remote.NewClient(remote.Config{
			BaseURL:         cfg.Server.BaseURL,
			AttachmentRoute: cfg.Server.AttachmentRoute,
			Timeout:         cfg.Server.Timeout,
			Logger:          logging.RemoteLogger(provider),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrTargetInvalid, target)
	}
}

// OpenSession authenticates client and binds the configured project.
func OpenSession(ctx context.Context, client ArtifactClient, cfg Config) error {
	ok, err := client.Authenticate(ctx, cfg.Server.Username, cfg.Server.Password)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: authentication failed for %q", ErrSessionRejected, cfg.Server.Username)
	}
	ok, err = client.ConnectToProject(ctx, cfg.Project.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: project %d is not available", ErrSessionRejected, cfg.Project.ID)
	}
	return nil
}
