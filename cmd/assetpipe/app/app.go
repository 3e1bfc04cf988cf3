// Package app provides the application context and dependency management
// for the assetpipe CLI. It centralizes configuration, logging and the
// shared snapshot store, and builds a merge client per working file.
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/snapshot"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/merge"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
)

// App represents the assetpipe application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	store  *snapshot.Store
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		store:   snapshot.NewStore(),
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Store returns the snapshot store shared by every client of the app.
func (a *App) Store() *snapshot.Store {
	return a.store
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client returns a merge client for the working file. Its hook files are
// watched until ctx is done.
func (a *App) Client(ctx context.Context, file string, layers []string) (assetpipe.Client, error) {
	cfg, err := tasklayer.Find(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		layers = a.config.Layers
	}
	if len(layers) == 0 {
		layers = InferLayers(cfg, file)
	}
	if len(layers) == 0 {
		return nil, errors.NewConfigError("layers",
			"no local task layers for "+filepath.Base(file)+", pass --layers", nil)
	}

	client, err := assetpipe.New(
		assetpipe.WithTaskLayerConfig(cfg),
		assetpipe.WithLocalTaskLayers(layers...),
		assetpipe.WithStore(a.store),
		assetpipe.WithBackupDir(a.config.BackupDir),
		assetpipe.WithProjectHooksDir(a.config.HooksDir),
		assetpipe.WithPreserve(a.config.Preserve),
		assetpipe.WithHookWatch(ctx),
	)
	if err != nil {
		return nil, err
	}

	logger := a.logger
	client.OnMergeStarted(func(dir merge.Direction, file, target string) {
		logger.Debug().Str("direction", dir.String()).Str("file", file).Str("target", target).Msg("Merge started")
	})
	client.OnConflict(func(r *merge.Result) {
		logger.Warn().Int("conflicts", len(r.Conflicts)).Msg("Merge stopped on ownership conflicts")
	})
	return client, nil
}

// InferLayers reads the local task layers from a working file name such as
// chair-rigging.yaml. Several layers are joined with "+", as in
// chair-modeling+shading.yaml.
func InferLayers(cfg *tasklayer.Config, file string) []string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	idx := strings.LastIndex(stem, constants.NameDelimiter)
	if idx < 0 {
		return nil
	}
	var layers []string
	for _, key := range strings.Split(stem[idx+1:], "+") {
		if !cfg.HasLayer(key) {
			return nil
		}
		layers = append(layers, key)
	}
	return layers
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(ctx context.Context) error {
	stats := a.store.CacheStats()
	a.logger.Debug().
		Int("cached", stats.ItemCount).
		Int64("hits", stats.Hits).
		Int64("misses", stats.Misses).
		Msg("Shutting down")
	return ctx.Err()
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets a custom snapshot store.
func WithStore(store *snapshot.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}
