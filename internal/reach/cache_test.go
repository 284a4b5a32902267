package reach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depflat/internal/imports"
)

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	now := time.Now()
	a := cacheKey{path: "a", size: 1, modTime: now, language: "java"}
	b := cacheKey{path: "b", size: 1, modTime: now, language: "java"}
	d := cacheKey{path: "d", size: 1, modTime: now, language: "java"}

	_, ok := c.get(a)
	assert.False(t, ok)

	c.put(a, []imports.Reference{{Name: "x.Y"}})
	refs, ok := c.get(a)
	require.True(t, ok)
	assert.Equal(t, "x.Y", refs[0].Name)

	changed := a
	changed.size = 2
	_, ok = c.get(changed)
	assert.False(t, ok, "a size change must miss")

	c.put(b, nil)
	c.put(d, nil)
	assert.Equal(t, 2, c.Len())
	_, ok = c.get(a)
	assert.False(t, ok, "least recently used entry evicted")

	assert.Equal(t, int64(1), c.Hits())
	assert.Equal(t, int64(3), c.Misses())
}
