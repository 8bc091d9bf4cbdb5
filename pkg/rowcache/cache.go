// Package rowcache holds lazily loaded row details keyed by entity id.
package rowcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 256

// Loader fetches the detail payload for one id.
type Loader[V any] func(ctx context.Context, id string) (V, error)

// Observer receives hit/miss notifications.
type Observer func(hit bool)

// Cache is a bounded LRU of detail payloads plus the set of ids being loaded.
// An id is never cached and in flight at the same time. Cached entries stay
// until evicted by capacity or cleared by Refresh/Purge.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, V]
	inflight map[string]uint64
	seq      uint64
	group    singleflight.Group
	load     Loader[V]
	observe  Observer
}

// New builds a cache with the given capacity (DefaultCapacity when <= 0).
func New[V any](capacity int, load Loader[V], observe Observer) (*Cache[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{
		entries:  entries,
		inflight: make(map[string]uint64),
		load:     load,
		observe:  observe,
	}, nil
}

// Get returns the cached payload for id, loading it on first use. Concurrent
// callers for the same id share one load and the first caller's context.
func (c *Cache[V]) Get(ctx context.Context, id string) (V, error) {
	c.mu.Lock()
	v, ok := c.entries.Get(id)
	c.mu.Unlock()
	if ok {
		c.record(true)
		return v, nil
	}
	c.record(false)

	out, err, _ := c.group.Do(id, func() (any, error) {
		c.mu.Lock()
		if v, ok := c.entries.Get(id); ok {
			c.mu.Unlock()
			return v, nil
		}
		c.seq++
		token := c.seq
		c.inflight[id] = token
		c.mu.Unlock()

		v, err := c.load(ctx, id)

		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.inflight[id]; ok && current == token {
			delete(c.inflight, id)
			if err == nil {
				c.entries.Add(id, v)
			}
		}
		return v, err
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out.(V), nil
}

// Peek returns a cached payload without loading or touching recency.
func (c *Cache[V]) Peek(id string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Peek(id)
}

// Cached reports whether id has a cached payload.
func (c *Cache[V]) Cached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Contains(id)
}

// InFlight reports whether id is currently being loaded.
func (c *Cache[V]) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Refresh drops the cached payload for id so the next Get reloads it. A load
// already in flight for id is detached and its result is not stored.
func (c *Cache[V]) Refresh(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(id)
	delete(c.inflight, id)
	c.group.Forget(id)
}

// Purge clears every entry and detaches in-flight loads.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	for id := range c.inflight {
		delete(c.inflight, id)
		c.group.Forget(id)
	}
}

// Len returns the number of cached payloads.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache[V]) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}
