package assetpipe

import (
	"sync"

	"github.com/agentstation/assetpipe/pkg/merge"
)

// Callback types for merge events
type (
	// MergeStartedHook is called before a merge starts
	MergeStartedHook func(dir merge.Direction, file, target string)

	// ConflictHook is called when a merge stops at the conflict gate
	ConflictHook func(result *merge.Result)

	// MergeCompletedHook is called after a merge has been saved
	MergeCompletedHook func(result *merge.Result)
)

// callbacks manages event callbacks for merges
type callbacks struct {
	mu               sync.RWMutex
	onMergeStarted   []MergeStartedHook
	onConflict       []ConflictHook
	onMergeCompleted []MergeCompletedHook
}

func newCallbacks() *callbacks {
	return &callbacks{}
}

// OnMergeStarted registers a callback for when a merge starts
func (h *callbacks) OnMergeStarted(fn MergeStartedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMergeStarted = append(h.onMergeStarted, fn)
}

// OnConflict registers a callback for when a merge hits conflicts
func (h *callbacks) OnConflict(fn ConflictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConflict = append(h.onConflict, fn)
}

// OnMergeCompleted registers a callback for when a merge completes
func (h *callbacks) OnMergeCompleted(fn MergeCompletedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMergeCompleted = append(h.onMergeCompleted, fn)
}

func (h *callbacks) mergeStarted(dir merge.Direction, file, target string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMergeStarted {
		fn(dir, file, target)
	}
}

func (h *callbacks) conflict(result *merge.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onConflict {
		fn(result)
	}
}

func (h *callbacks) mergeCompleted(result *merge.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMergeCompleted {
		fn(result)
	}
}
