package cache

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loading is an LRUCache that fills misses through a loader. Concurrent
// misses for one key share a single load, and a Purge during a load keeps
// its result out of the cache.
type Loading[T any] struct {
	*LRUCache[T]
	group      singleflight.Group
	generation atomic.Uint64
}

func NewLoading[T any](maxSize int, ttl time.Duration) *Loading[T] {
	return &Loading[T]{LRUCache: NewLRUCache[T](maxSize, ttl)}
}

// GetOrLoad returns the live value for key, calling load on a miss. Errors
// are returned to every waiting caller and are not cached.
func (c *Loading[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	gen := c.generation.Load()
	v, err, _ := c.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.Set(key, v)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Purge drops every entry and discards the results of loads in flight.
func (c *Loading[T]) Purge() {
	c.generation.Add(1)
	c.LRUCache.Purge()
}
