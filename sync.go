package assetpipe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/agentstation/assetpipe/internal/publish"
	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/hooks"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/merge"
)

// SyncOption configures a Sync.
type SyncOption func(*SyncOptions)

// SyncOptions are the options of a Sync.
type SyncOptions struct {
	// SkipPull pushes without pulling first.
	SkipPull bool
}

// SyncWithoutPull skips the pull before the push.
func SyncWithoutPull() SyncOption {
	return func(o *SyncOptions) {
		o.SkipPull = true
	}
}

// SyncResult holds the results of both halves of a sync.
type SyncResult struct {
	Target string
	Pull   *merge.Result
	Push   *merge.Result
}

func logger(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx)
}

// hooksFor returns the dispatcher for merges of file.
func (c *client) hooksFor(ctx context.Context, file string) (*hooks.Dispatcher, error) {
	if c.config.hooks != nil {
		return c.config.hooks, nil
	}
	dir := filepath.Dir(file)
	if c.config.watchCtx == nil {
		return c.loadHooks(ctx, dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.dispatchers[dir]; ok {
		return d, nil
	}
	d, err := c.loadHooks(ctx, dir)
	if err != nil {
		return nil, err
	}
	watchCtx := logging.WithLogger(c.config.watchCtx, logger(ctx))
	if err := d.Watch(watchCtx, nil); err != nil {
		return nil, errors.WrapResource("watch", "hooks", dir, err)
	}
	c.dispatchers[dir] = d
	return d, nil
}

func (c *client) loadHooks(ctx context.Context, dir string) (*hooks.Dispatcher, error) {
	d := hooks.NewDispatcher(hooks.WithDirs(c.config.projectHooksDir, dir))
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *client) merger(ctx context.Context, file string) (*merge.Merger, error) {
	d, err := c.hooksFor(ctx, file)
	if err != nil {
		return nil, err
	}
	return merge.New(c.config.taskLayers, c.store,
		merge.WithRegistry(c.config.registry),
		merge.WithProfiler(c.profiler),
		merge.WithHooks(d),
	)
}

// run merges target into doc and reports the outcome to the callbacks.
func (c *client) run(ctx context.Context, doc *asset.Document, req merge.Request, file string) (*merge.Result, error) {
	m, err := c.merger(ctx, file)
	if err != nil {
		return nil, err
	}
	c.mergeStarted(req.Direction, file, req.ExternalPath)
	result, err := m.Merge(ctx, doc, req)
	if err != nil {
		if result != nil && result.HasConflicts() {
			c.conflict(result)
		}
		return result, err
	}
	return result, nil
}

// Pull merges the sync target into the working file. The working file is
// backed up before anything changes, then ownership discovery is committed.
// The file is not saved when the merge fails.
func (c *client) Pull(ctx context.Context, file string) (*merge.Result, error) {
	target, err := publish.SyncTarget(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Load(file)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.NewNotFoundError("asset root", file)
	}
	ctx = logging.WithAsset(ctx, doc.Root().Name)

	backup, err := c.store.Backup(doc, c.config.backupDir)
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", file, err)
	}
	logger(ctx).Debug().Str("backup", backup).Msg("Backed up working file")

	report, err := c.Discover(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := c.Commit(ctx, doc, report); err != nil {
		return nil, err
	}

	var preserved *merge.Preserved
	if c.config.preserve {
		preserved = merge.Capture(doc)
	}

	result, err := c.run(ctx, doc, merge.Request{
		Direction:    merge.Pull,
		LocalLayers:  c.config.localLayers,
		ExternalPath: target,
	}, file)
	if err != nil {
		return result, err
	}

	if preserved != nil {
		restored := preserved.Restore(doc)
		logger(ctx).Debug().Int("restored", restored).Msg("Restored active indices")
	}
	if err := c.store.Save(doc, file); err != nil {
		return result, err
	}
	c.mergeCompleted(result)
	return result, nil
}

// Push merges the working file into the sync target. The target's actions
// are unassigned and the configured catalog ID is written onto its asset
// root before it is saved. The target is not saved when the merge fails.
func (c *client) Push(ctx context.Context, file string) (*merge.Result, error) {
	target, err := publish.SyncTarget(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Load(target)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.NewNotFoundError("asset root", target)
	}
	ctx = logging.WithAsset(ctx, doc.Root().Name)

	result, err := c.run(ctx, doc, merge.Request{
		Direction:    merge.Push,
		LocalLayers:  c.config.taskLayers.Complement(c.config.localLayers),
		ExternalPath: file,
	}, file)
	if err != nil {
		return result, err
	}

	unassigned := merge.UnassignActions(doc)
	if id := c.config.taskLayers.AssetCatalogID(); id != "" && doc.Root().Asset != nil {
		doc.Root().Asset.CatalogID = id
	}
	if err := c.store.Save(doc, target); err != nil {
		return result, err
	}
	logger(ctx).Info().
		Str("target", target).
		Int("unassigned_actions", unassigned).
		Msg("Pushed to sync target")
	c.mergeCompleted(result)
	return result, nil
}

// Sync pulls from the sync target and then pushes to it. The push is
// skipped when the pull fails.
func (c *client) Sync(ctx context.Context, file string, opts ...SyncOption) (*SyncResult, error) {
	options := &SyncOptions{}
	for _, opt := range opts {
		opt(options)
	}
	target, err := publish.SyncTarget(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	out := &SyncResult{Target: target}

	if !options.SkipPull {
		out.Pull, err = c.Pull(ctx, file)
		if err != nil {
			return out, err
		}
	}
	out.Push, err = c.Push(ctx, file)
	if err != nil {
		return out, err
	}
	return out, nil
}
