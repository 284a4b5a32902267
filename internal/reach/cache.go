package reach

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"depflat/internal/imports"
)

// DefaultCacheSize is the number of files whose references are remembered.
const DefaultCacheSize = 4096

type cacheKey struct {
	path     string
	size     int64
	modTime  time.Time
	language string
}

// Cache remembers extracted references per file version. A file whose size
// or modification time changed misses. Safe for concurrent use and for
// sharing between engines (bundles re-use each other's work).
type Cache struct {
	entries *lru.Cache[cacheKey, []imports.Reference]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates a cache holding up to size files.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, []imports.Reference](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) get(key cacheKey) ([]imports.Reference, bool) {
	refs, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return refs, ok
}

func (c *Cache) put(key cacheKey, refs []imports.Reference) {
	c.entries.Add(key, refs)
}

// Hits returns the number of lookups served from the cache.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of lookups that required extraction.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Len returns the number of cached files.
func (c *Cache) Len() int { return c.entries.Len() }
