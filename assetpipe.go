// Package assetpipe merges the task layers of an asset between a working
// copy and its published versions.
//
// Every artist works in a copy of the asset and owns one or more task layers
// of it, such as modeling or rigging. Pull brings the work of every other
// layer from the sync target into the working copy. Push writes the
// working copy's layers into the sync target. Ownership of each group,
// item and sub-item decides which side wins.
package assetpipe

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/agentstation/assetpipe/internal/publish"
	"github.com/agentstation/assetpipe/internal/snapshot"
	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/hooks"
	"github.com/agentstation/assetpipe/pkg/merge"
	"github.com/agentstation/assetpipe/pkg/ownership"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
)

// Client runs task layer merges for one asset
type Client interface {
	// Discover finds ownership changes in doc without applying them
	Discover(ctx context.Context, doc *asset.Document) (*ownership.Report, error)

	// Commit applies a report returned by Discover
	Commit(ctx context.Context, doc *asset.Document, report *ownership.Report) error

	// Pull merges the sync target into the working file and saves it
	Pull(ctx context.Context, file string) (*merge.Result, error)

	// Push merges the working file into the sync target and saves it
	Push(ctx context.Context, file string) (*merge.Result, error)

	// Sync pulls, unless disabled, and then pushes
	Sync(ctx context.Context, file string, opts ...SyncOption) (*SyncResult, error)

	// Status reports ownership of the working file
	Status(ctx context.Context, file string) (*Status, error)

	// Publish writes the working file as the next version of a publish type
	Publish(ctx context.Context, file string, t publish.Type) (string, error)

	// Restore replaces the working file with its last backup
	Restore(ctx context.Context, file string) error

	// Profiler returns the timings of every merge run by the client
	Profiler() *merge.Profiler

	// OnMergeStarted registers a callback for when a merge starts
	OnMergeStarted(MergeStartedHook)

	// OnConflict registers a callback for when a merge hits conflicts
	OnConflict(ConflictHook)

	// OnMergeCompleted registers a callback for when a merge completes
	OnMergeCompleted(MergeCompletedHook)
}

// client is the internal implementation of the Client interface
type client struct {
	*callbacks
	config     *config
	store      *snapshot.Store
	discoverer *ownership.Discoverer
	profiler   *merge.Profiler

	mu          sync.Mutex
	dispatchers map[string]*hooks.Dispatcher // watched, by working directory
}

// New creates a new Client with the given options
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if cfg.taskLayers == nil {
		return nil, errors.NewConfigError("assetpipe", "task layer config is required", nil)
	}
	if err := cfg.taskLayers.ValidateLocal(cfg.localLayers); err != nil {
		return nil, err
	}

	c := &client{
		callbacks:   newCallbacks(),
		config:      cfg,
		store:       cfg.store,
		profiler:    merge.NewProfiler(),
		dispatchers: make(map[string]*hooks.Dispatcher),
	}
	if c.store == nil {
		c.store = snapshot.NewStore()
	}
	c.discoverer = ownership.New(cfg.taskLayers, ownership.WithRegistry(cfg.registry))
	if cfg.hooks != nil && cfg.watchCtx != nil {
		if err := cfg.hooks.Watch(cfg.watchCtx, nil); err != nil {
			return nil, errors.WrapResource("watch", "hooks", "", err)
		}
	}
	return c, nil
}

// Discover finds ownership changes in doc without applying them
func (c *client) Discover(ctx context.Context, doc *asset.Document) (*ownership.Report, error) {
	return c.discoverer.Discover(ctx, doc, c.config.localLayers)
}

// Commit applies a report returned by Discover
func (c *client) Commit(ctx context.Context, doc *asset.Document, report *ownership.Report) error {
	return c.discoverer.Commit(ctx, doc, report)
}

// Profiler returns the timings of every merge run by the client
func (c *client) Profiler() *merge.Profiler {
	return c.profiler
}

// TaskLayers returns the task layer definition of the client.
func (c *client) TaskLayers() *tasklayer.Config {
	return c.config.taskLayers
}

// Publish writes the working file as the next version of publish type t
// and returns the path written.
func (c *client) Publish(ctx context.Context, file string, t publish.Type) (string, error) {
	doc, err := c.store.Load(file)
	if err != nil {
		return "", err
	}
	p := publish.NewPublisher(c.store, c.config.taskLayers.AssetCatalogID())
	path, err := p.Create(doc, filepath.Dir(file), t)
	if err != nil {
		return "", err
	}
	logger(ctx).Info().Str("file", file).Str("path", path).Str("type", t.String()).Msg("Published")
	return path, nil
}

// Restore replaces the working file with its last backup.
func (c *client) Restore(ctx context.Context, file string) error {
	doc, err := c.store.Load(file)
	if err != nil {
		return err
	}
	if doc.Root() == nil {
		return errors.NewNotFoundError("asset root", file)
	}
	backup, err := c.store.Restore(c.config.backupDir, doc.Root().Name)
	if err != nil {
		return err
	}
	if err := c.store.Save(backup, file); err != nil {
		return err
	}
	logger(ctx).Info().Str("file", file).Msg("Restored working file from backup")
	return nil
}
