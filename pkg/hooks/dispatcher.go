// Package hooks runs user hooks before and after each merge.
//
// A hook is a Go function registered in process, or a command declared in
// a hooks.yaml file of a hook directory. Each hook carries Rules matching
// the merge mode ("pull" or "push") and the merge status ("pre" or "post").
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Event is passed to every hook.
type Event struct {
	MergeMode   string
	MergeStatus string
	Root        *asset.Group
}

// Func is the body of a hook.
type Func func(ctx context.Context, e Event) error

// Hook is a registered hook.
type Hook struct {
	Name  string
	Rules Rules
	Func  Func

	// Source is the hook file the hook was loaded from, empty for hooks
	// registered in process.
	Source string
}

// Dispatcher holds hooks and runs the ones matching a merge.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks []*Hook
	dirs  []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDirs sets the directories searched for hooks.yaml, in load order.
// Project-wide hooks come first, then asset-specific ones.
func WithDirs(dirs ...string) Option {
	return func(d *Dispatcher) {
		for _, dir := range dirs {
			if dir != "" {
				d.dirs = append(d.dirs, dir)
			}
		}
	}
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dirs returns the hook directories.
func (d *Dispatcher) Dirs() []string {
	return slices.Clone(d.dirs)
}

// Register adds an in-process hook. Names are unique across all hooks.
func (d *Dispatcher) Register(name string, rules Rules, fn Func) error {
	if fn == nil {
		return errors.NewValidationError("hook", name, "function cannot be nil")
	}
	return d.add(&Hook{Name: name, Rules: rules, Func: fn})
}

func (d *Dispatcher) add(h *Hook) error {
	if h.Name == "" {
		return errors.NewValidationError("hook name", h.Name, "cannot be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.hooks {
		if existing.Name == h.Name {
			return errors.NewResourceError("register", "hook", h.Name, errors.ErrAlreadyExists)
		}
	}
	d.hooks = append(d.hooks, h)
	return nil
}

// Hooks returns every registered hook in registration order.
func (d *Dispatcher) Hooks() []*Hook {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.hooks)
}

// Filter returns the hooks whose rules match mode and status.
func (d *Dispatcher) Filter(mode, status string) []*Hook {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Hook
	for _, h := range d.hooks {
		if h.Rules.Match(mode, status) {
			out = append(out, h)
		}
	}
	return out
}

// Execute runs the matching hooks in registration order and stops at the
// first failure.
func (d *Dispatcher) Execute(ctx context.Context, mode, status string, root *asset.Group) error {
	logger := logging.FromContext(ctx)
	event := Event{MergeMode: mode, MergeStatus: status, Root: root}
	for _, h := range d.Filter(mode, status) {
		logger.Debug().
			Str("hook", h.Name).
			Str("mode", mode).
			Str("status", status).
			Msg("Running hook")
		if err := h.Func(ctx, event); err != nil {
			return fmt.Errorf("hook %q: %w", h.Name, err)
		}
	}
	return nil
}

// replaceFileHooks swaps every file-loaded hook for hooks, keeping
// in-process hooks in front.
func (d *Dispatcher) replaceFileHooks(hooks []*Hook) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := make([]*Hook, 0, len(d.hooks)+len(hooks))
	names := make(map[string]bool)
	for _, h := range d.hooks {
		if h.Source == "" {
			kept = append(kept, h)
			names[h.Name] = true
		}
	}
	for _, h := range hooks {
		if names[h.Name] {
			return errors.NewResourceError("load", "hook", h.Name,
				fmt.Errorf("%s: %w", h.Source, errors.ErrAlreadyExists))
		}
		names[h.Name] = true
		kept = append(kept, h)
	}
	d.hooks = kept
	return nil
}
