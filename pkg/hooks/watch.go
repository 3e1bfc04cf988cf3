package hooks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Watch reloads file hooks whenever a hooks.yaml in one of the hook
// directories is written, created, removed or renamed. Directories that do
// not exist are not watched. The watch is set up before Watch returns and
// stops when ctx is done. onReload, when set, is called after every reload
// attempt with its error.
func (d *Dispatcher) Watch(ctx context.Context, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	watched := 0
	for _, dir := range d.dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
		watched++
	}
	logger.Debug().Int("dirs", watched).Msg("Watching hook files")

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != constants.HookFileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				err := d.Load(ctx)
				if err != nil {
					logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to reload hooks")
				} else {
					logger.Info().Str("path", event.Name).Msg("Reloaded hooks")
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("Hook watcher error")
			}
		}
	}()
	return nil
}
