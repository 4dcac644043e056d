package cli

import (
	"context"
	"io"
	"os"
	"strings"

	docsync "github.com/goliatone/go-docsync"
	"github.com/goliatone/go-docsync/internal/runtimeconfig"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// PasswordEnv is read when neither a flag nor the config file carries the
// service password.
const PasswordEnv = "DOCSYNC_PASSWORD"

func loadConfig(path string) (runtimeconfig.Config, error) {
	if strings.TrimSpace(path) == "" {
		return docsync.DefaultConfig(), nil
	}
	return docsync.LoadConfig(path)
}

func newProvider(cfg runtimeconfig.LoggingConfig, verbose bool, w io.Writer) (interfaces.LoggerProvider, error) {
	if verbose {
		cfg.Level = "debug"
	}
	return docsync.NewLoggerProvider(cfg, w)
}

// connector opens artifact clients for either target.
type connector struct {
	cfg      runtimeconfig.Config
	provider interfaces.LoggerProvider
}

func (c connector) connect(ctx context.Context, target string) (interfaces.ArtifactClient, error) {
	return docsync.NewClient(ctx, c.cfg, target, c.provider)
}

// openSession connects, authenticates and binds the project. Callers close
// the client.
func (c connector) openSession(ctx context.Context) (interfaces.ArtifactClient, error) {
	client, err := c.connect(ctx, c.cfg.Sync.Target)
	if err != nil {
		return nil, err
	}
	if err := docsync.OpenSession(ctx, client, c.cfg); err != nil {
		closeClient(client)
		return nil, err
	}
	return client, nil
}

func closeClient(client interfaces.ArtifactClient) {
	if closer, ok := client.(io.Closer); ok {
		_ = closer.Close()
	}
}

// applyCredentials layers flag credentials over the config and falls back to
// the environment for the password.
func applyCredentials(cfg *runtimeconfig.Config, user, password string) {
	if user != "" {
		cfg.Server.Username = user
	}
	if password != "" {
		cfg.Server.Password = password
	}
	if cfg.Server.Password == "" {
		cfg.Server.Password = os.Getenv(PasswordEnv)
	}
}
