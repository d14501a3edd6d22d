// Package cache implements the chunk cache: strict LRU on hit and insert,
// in count-bounded and byte-bounded variants, with miss-coalescing so
// concurrent misses for the same key invoke the loader at most once.
package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache caches decoded chunk values keyed by string (a store key, or a
// store key plus a subset descriptor for partial-decode caching). It is
// safe for concurrent use.
type Cache[V any] struct {
	mu    sync.Mutex
	lru   *lru.LRU[string, entry[V]]
	group singleflight.Group
	log   *zap.Logger

	byteBounded bool
	maxBytes    int64
	curBytes    int64
	sizeOf      func(V) int64
}

type entry[V any] struct {
	value V
	size  int64
}

// NewCountBounded returns a Cache that evicts the least-recently-used
// entry whenever len(cache) would exceed capacity.
func NewCountBounded[V any](capacity int) *Cache[V] {
	c := &Cache[V]{log: zap.NewNop()}
	l, _ := lru.NewLRU[string, entry[V]](capacity, c.onEvict)
	c.lru = l
	return c
}

// NewByteBounded returns a Cache that evicts least-recently-used entries
// until the sum of sizeOf(value) over all cached entries fits within
// maxBytes, always retaining at least one entry.
func NewByteBounded[V any](maxBytes int64, sizeOf func(V) int64) *Cache[V] {
	c := &Cache[V]{byteBounded: true, maxBytes: maxBytes, sizeOf: sizeOf, log: zap.NewNop()}
	// simplelru needs a finite capacity; use a very large one and do the
	// byte-budget eviction ourselves in insert below.
	l, _ := lru.NewLRU[string, entry[V]](1<<31-1, c.onEvict)
	c.lru = l
	return c
}

// SetLogger installs a diagnostic logger for eviction events. A nil logger
// (the default) disables logging; evictions are never load-bearing for
// correctness, only for understanding cache pressure after the fact.
func (c *Cache[V]) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

func (c *Cache[V]) onEvict(key string, e entry[V]) {
	if c.byteBounded {
		c.curBytes -= e.size
	}
	c.log.Debug("cache evict", zap.String("key", key), zap.Int64("size", e.size), zap.Bool("byte_bounded", c.byteBounded))
}

// Get returns the cached value for key, if present, promoting it to
// most-recently-used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	return e.value, ok
}

// Remove evicts key, if present.
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len returns the current number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache[V]) insert(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := int64(0)
	if c.byteBounded {
		size = c.sizeOf(value)
		// Replacing an existing key does not call onEvict.
		if old, ok := c.lru.Peek(key); ok {
			c.curBytes -= old.size
		}
	}
	c.lru.Add(key, entry[V]{value: value, size: size})
	if c.byteBounded {
		c.curBytes += size
		// RemoveOldest calls onEvict, which subtracts the evicted size.
		for c.curBytes > c.maxBytes && c.lru.Len() > 1 {
			if _, _, ok := c.lru.RemoveOldest(); !ok {
				break
			}
		}
	}
}

// TryGetOrInsertWith returns the cached value for key if present;
// otherwise it calls f, caches the result (unless f errors), and returns
// it. Concurrent callers that miss on the same key share a single
// invocation of f via golang.org/x/sync/singleflight. An error from f is
// returned to every waiter but never cached, so a subsequent call
// retries.
func (c *Cache[V]) TryGetOrInsertWith(ctx context.Context, key string, f func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the singleflight lock: another goroutine's
		// call may have populated the cache between our Get above and
		// here.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := f(ctx)
		if err != nil {
			return v, err
		}
		c.insert(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}
