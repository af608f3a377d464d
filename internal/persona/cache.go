package persona

import (
	"os"
	"sync"
	"time"
)

// Cache is an in-memory persona content cache keyed by resolved path.
// Entries are validated against file modification time and size, so the
// cache never serves content that differs from what re-reading would return.
// A nil *Cache is valid and disabled.
type Cache struct {
	mu      sync.Mutex
	enabled bool
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	content string
}

// NewCache creates a Cache. When enabled is false all operations are no-ops.
func NewCache(enabled bool) *Cache {
	return &Cache{
		enabled: enabled,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached content for path if present and still current
// against info. Returns ("", false) on miss or staleness.
func (c *Cache) Get(path string, info os.FileInfo) (string, bool) {
	if c == nil || !c.enabled {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[path]
	if !ok {
		return "", false
	}
	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		delete(c.entries, path)
		return "", false
	}
	return entry.content, true
}

// Put stores content for path stamped with info's modification time and size.
func (c *Cache) Put(path string, info os.FileInfo, content string) {
	if c == nil || !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		content: content,
	}
}

// Clear discards all entries. Safe at any time; the next Resolve re-reads.
func (c *Cache) Clear() {
	if c == nil || !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
