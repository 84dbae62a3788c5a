// Package cache is a JSON read-through cache on Redis. Every operation is a
// no-op when Redis is unreachable, so the API keeps serving from the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
)

const driver = "redis"

// Store wraps a Redis client. A Store with a nil client misses every Get.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect dials Redis and verifies the connection with a ping. On failure it
// returns a usable no-op Store together with the error so the caller can log
// and carry on.
func Connect(ctx context.Context) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return &Store{}, fmt.Errorf("cache: redis ping: %w", err)
	}
	return New(rdb, "littlelemon:"), nil
}

// New wraps an existing client. Keys are namespaced with prefix.
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.rdb == nil {
		return false
	}

	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues(driver).Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(driver).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(driver).Inc()
	return true
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Del removes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Flush removes every key under pattern (relative to the prefix), e.g.
// "menu:*" after a catalog mutation.
func (s *Store) Flush(ctx context.Context, pattern string) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	iter := s.rdb.Scan(ctx, 0, s.prefix+pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Close releases the Redis connection pool.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Client exposes the underlying Redis client, or nil when the Store is a
// no-op.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}
