// Package cache provides the read-through caches that sit in front of both
// entity stores. A Cache instance is bound to a single namespace; every
// mutation clears each namespace it touches in full (per-entity and list), so
// no reader ever observes a stale list after a write.
package cache

import "context"

// Loader fetches the authoritative value on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Cache is a read-through cache over one namespace. GetOrLoad returns the
// cached value for key if present, otherwise invokes loader, stores the result
// and returns it. Concurrent GetOrLoad calls for the same key collapse into a
// single loader invocation. Clear evicts every entry in the namespace.
//
// Loader errors are returned as-is and nothing is cached, so a NotFound from
// the store is never negatively cached. Cache infrastructure errors are logged
// and treated as misses; they never surface to the caller of GetOrLoad.
type Cache[T any] interface {
	GetOrLoad(ctx context.Context, key string, loader Loader[T]) (T, error)
	Clear(ctx context.Context) error
}

// ListKey is the fixed key under which full-collection snapshots are cached.
const ListKey = "all"
