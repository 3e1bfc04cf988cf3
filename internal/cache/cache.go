// Package cache keeps parsed files in memory, keyed by path and
// invalidated when the file on disk changes.
package cache

import (
	"os"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Stamp identifies one version of a file on disk.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// StampOf returns the stamp of info.
func StampOf(info os.FileInfo) Stamp {
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}
}

type entry[V any] struct {
	stamp Stamp
	value V
}

// Files caches one value per file path.
type Files[V any] struct {
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache whose entries expire after ttl. Expired entries are
// removed every cleanupInterval.
func New[V any](ttl, cleanupInterval time.Duration) *Files[V] {
	return &Files[V]{
		store: gocache.New(ttl, cleanupInterval),
	}
}

// Get returns the value cached for path if it was stored for the same stamp.
func (c *Files[V]) Get(path string, stamp Stamp) (V, bool) {
	var zero V
	raw, ok := c.store.Get(path)
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	e := raw.(entry[V])
	if !e.stamp.ModTime.Equal(stamp.ModTime) || e.stamp.Size != stamp.Size {
		c.store.Delete(path)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value for path at stamp with the default TTL.
func (c *Files[V]) Set(path string, stamp Stamp, value V) {
	c.store.Set(path, entry[V]{stamp: stamp, value: value}, gocache.DefaultExpiration)
}

// Delete removes path from the cache.
func (c *Files[V]) Delete(path string) {
	c.store.Delete(path)
}

// Clear removes all entries.
func (c *Files[V]) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of cached files.
func (c *Files[V]) ItemCount() int {
	return c.store.ItemCount()
}

// Stats are cache counters.
type Stats struct {
	ItemCount int   `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// GetStats returns current cache statistics.
func (c *Files[V]) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}
