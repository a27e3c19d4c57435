package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// RedisCache is a Redis-backed Cache. Values are stored as JSON under
// "<namespace>:<key>" with no TTL; lifetime is governed entirely by Clear.
type RedisCache[T any] struct {
	client    *redis.Client
	namespace string
	log       *slog.Logger
	group     singleflight.Group
}

func NewRedisCache[T any](client *redis.Client, namespace string, log *slog.Logger) *RedisCache[T] {
	return &RedisCache[T]{client: client, namespace: namespace, log: log}
}

func (c *RedisCache[T]) key(key string) string {
	return c.namespace + ":" + key
}

func (c *RedisCache[T]) GetOrLoad(ctx context.Context, key string, loader Loader[T]) (T, error) {
	if v, ok := c.get(ctx, key); ok {
		return v, nil
	}

	// Collapse concurrent loads of the same key into one store round trip.
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.get(ctx, key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return v, err
		}
		c.set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Clear evicts every entry in the namespace, scanning in batches so large
// namespaces do not block Redis.
func (c *RedisCache[T]) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.namespace+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear namespace %s: %w", c.namespace, err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan namespace %s: %w", c.namespace, err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to clear namespace %s: %w", c.namespace, err)
		}
	}
	return nil
}

// get returns (value, true) on a hit. Any Redis or decode error counts as a
// miss; the caller falls through to the store.
func (c *RedisCache[T]) get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", slog.String("key", c.key(key)), slog.Any("error", err))
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn("cache entry corrupt", slog.String("key", c.key(key)), slog.Any("error", err))
		return v, false
	}
	return v, true
}

// set stores value under key. A failed cache write is non-fatal.
func (c *RedisCache[T]) set(ctx context.Context, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache marshal failed", slog.String("key", c.key(key)), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, 0).Err(); err != nil {
		c.log.Warn("cache write failed", slog.String("key", c.key(key)), slog.Any("error", err))
	}
}
