package cache

import (
	"sync"
	"testing"
	"time"
)

var stamp = Stamp{ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Size: 128}

// TestFiles_New tests cache creation.
func TestFiles_New(t *testing.T) {
	c := New[string](5*time.Minute, 10*time.Minute)
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.store == nil {
		t.Error("cache store not initialized")
	}
}

// TestFiles_BasicOperations tests Get, Set and Delete.
func TestFiles_BasicOperations(t *testing.T) {
	c := New[string](5*time.Minute, 10*time.Minute)

	t.Run("Set and Get", func(t *testing.T) {
		c.Set("chair.yaml", stamp, "parsed")

		val, found := c.Get("chair.yaml", stamp)
		if !found {
			t.Error("expected chair.yaml to be found")
		}
		if val != "parsed" {
			t.Errorf("expected parsed, got %v", val)
		}
	})

	t.Run("Get non-existent path", func(t *testing.T) {
		_, found := c.Get("missing.yaml", stamp)
		if found {
			t.Error("expected missing path to not be found")
		}
	})

	t.Run("Set and Delete", func(t *testing.T) {
		c.Set("table.yaml", stamp, "parsed")
		c.Delete("table.yaml")

		if _, found := c.Get("table.yaml", stamp); found {
			t.Error("expected table.yaml to be deleted")
		}
	})
}

// TestFiles_StaleStamp tests that a changed file invalidates its entry.
func TestFiles_StaleStamp(t *testing.T) {
	tests := []struct {
		name  string
		stamp Stamp
	}{
		{"newer mod time", Stamp{ModTime: stamp.ModTime.Add(time.Second), Size: stamp.Size}},
		{"different size", Stamp{ModTime: stamp.ModTime, Size: stamp.Size + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int](5*time.Minute, 10*time.Minute)
			c.Set("chair.yaml", stamp, 1)

			if _, found := c.Get("chair.yaml", tt.stamp); found {
				t.Error("expected stale entry to miss")
			}
			if c.ItemCount() != 0 {
				t.Errorf("expected stale entry to be dropped, have %d items", c.ItemCount())
			}
		})
	}
}

// TestFiles_Expiry tests the default TTL.
func TestFiles_Expiry(t *testing.T) {
	c := New[string](50*time.Millisecond, time.Minute)
	c.Set("chair.yaml", stamp, "parsed")

	time.Sleep(100 * time.Millisecond)

	if _, found := c.Get("chair.yaml", stamp); found {
		t.Error("expected entry to be expired")
	}
}

// TestFiles_Stats tests hit and miss counters.
func TestFiles_Stats(t *testing.T) {
	c := New[string](5*time.Minute, 10*time.Minute)
	c.Set("a.yaml", stamp, "a")
	c.Set("b.yaml", stamp, "b")

	c.Get("a.yaml", stamp)
	c.Get("a.yaml", stamp)
	c.Get("c.yaml", stamp)

	stats := c.GetStats()
	if stats.ItemCount != 2 {
		t.Errorf("expected 2 items, got %d", stats.ItemCount)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}

	c.Clear()
	if c.ItemCount() != 0 {
		t.Error("expected cache to be empty after Clear")
	}
}

// TestFiles_Concurrent tests concurrent access.
func TestFiles_Concurrent(t *testing.T) {
	c := New[int](5*time.Minute, 10*time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("shared.yaml", stamp, i)
			c.Get("shared.yaml", stamp)
		}(i)
	}
	wg.Wait()

	if _, found := c.Get("shared.yaml", stamp); !found {
		t.Error("expected shared.yaml to be cached")
	}
}
