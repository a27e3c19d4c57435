package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoryCache is an in-process Cache with the same semantics as RedisCache.
// Used by the service tests and the demo environment.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
	group   singleflight.Group
}

func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{entries: make(map[string]T)}
}

func (c *MemoryCache[T]) GetOrLoad(ctx context.Context, key string, loader Loader[T]) (T, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (c *MemoryCache[T]) Clear(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]T)
	c.mu.Unlock()
	return nil
}

// Len reports the number of live entries. Test helper.
func (c *MemoryCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
