package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		ops     func(c *lruCache[int])
		present []string
		missing []string
	}{
		{
			name:  "evicts least recently put",
			limit: 2,
			ops: func(c *lruCache[int]) {
				c.Put("a", 1)
				c.Put("b", 2)
				c.Put("c", 3)
			},
			present: []string{"b", "c"},
			missing: []string{"a"},
		},
		{
			name:  "get promotes entry",
			limit: 2,
			ops: func(c *lruCache[int]) {
				c.Put("a", 1)
				c.Put("b", 2)
				c.Get("a")
				c.Put("c", 3)
			},
			present: []string{"a", "c"},
			missing: []string{"b"},
		},
		{
			name:  "overwrite promotes entry",
			limit: 2,
			ops: func(c *lruCache[int]) {
				c.Put("a", 1)
				c.Put("b", 2)
				c.Put("a", 10)
				c.Put("c", 3)
			},
			present: []string{"a", "c"},
			missing: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLRUCache[int](tt.limit)
			tt.ops(c)

			assert.Equal(t, len(tt.present), c.Size())
			for _, key := range tt.present {
				_, ok := c.Get(key)
				assert.True(t, ok, key)
			}
			for _, key := range tt.missing {
				_, ok := c.Get(key)
				assert.False(t, ok, key)
			}
		})
	}
}

func TestLRUCacheValues(t *testing.T) {
	c := newLRUCache[string](1)

	v, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, v)

	c.Put("k", "first")
	c.Put("k", "second")
	v, ok = c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok = c.Get("k")
	assert.False(t, ok)
}
