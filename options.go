package assetpipe

import (
	"context"
	"os"

	"github.com/agentstation/assetpipe/internal/snapshot"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/hooks"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
	"github.com/agentstation/assetpipe/pkg/transfer"
)

// Option is a function that configures a Client.
type Option func(*config) error

// config holds the options of a Client.
type config struct {
	taskLayers      *tasklayer.Config
	localLayers     []string
	store           *snapshot.Store
	hooks           *hooks.Dispatcher
	projectHooksDir string
	watchCtx        context.Context
	registry        *transfer.Registry
	backupDir       string
	preserve        bool
}

func defaultConfig() *config {
	return &config{
		backupDir: os.TempDir(),
		preserve:  true,
	}
}

// WithTaskLayerConfig sets the task layer definition of the asset.
func WithTaskLayerConfig(cfg *tasklayer.Config) Option {
	return func(c *config) error {
		c.taskLayers = cfg
		return nil
	}
}

// WithLocalTaskLayers sets the task layers owned by the working copy.
func WithLocalTaskLayers(layers ...string) Option {
	return func(c *config) error {
		c.localLayers = append([]string(nil), layers...)
		return nil
	}
}

// WithStore sets the snapshot store. A new store is used by default.
func WithStore(store *snapshot.Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithHooks sets the hook dispatcher run around every merge. Without it,
// hooks are loaded from the project hooks directory and from the directory
// of the working file before each merge.
func WithHooks(d *hooks.Dispatcher) Option {
	return func(c *config) error {
		c.hooks = d
		return nil
	}
}

// WithProjectHooksDir sets the project-wide hooks directory.
func WithProjectHooksDir(dir string) Option {
	return func(c *config) error {
		c.projectHooksDir = dir
		return nil
	}
}

// WithRegistry sets the transfer registry.
func WithRegistry(r *transfer.Registry) Option {
	return func(c *config) error {
		c.registry = r
		return nil
	}
}

// WithBackupDir sets where working copies are backed up before a pull.
// Defaults to the system temp directory.
func WithBackupDir(dir string) Option {
	return func(c *config) error {
		c.backupDir = dir
		return nil
	}
}

// WithPreserve configures whether active indices and animation actions of
// the working copy survive a pull. Enabled by default.
func WithPreserve(enabled bool) Option {
	return func(c *config) error {
		c.preserve = enabled
		return nil
	}
}

// WithHookWatch keeps the hook dispatcher of each working directory for the
// lifetime of ctx and reloads it whenever a hooks.yaml changes, instead of
// loading hooks before every merge. A dispatcher set with WithHooks is
// watched too.
func WithHookWatch(ctx context.Context) Option {
	return func(c *config) error {
		if ctx == nil {
			return errors.NewValidationError("ctx", nil, "hook watch needs a context")
		}
		c.watchCtx = ctx
		return nil
	}
}
