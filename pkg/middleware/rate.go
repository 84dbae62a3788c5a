// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/response"
)

// Limiter decides whether one more request from key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// ─── In-memory fixed window ───────────────────────────────────────────────────

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

// MemoryLimiter is a per-process fixed-window limiter.
type MemoryLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryLimiter allows max requests per key per window. Expired buckets
// are evicted every window until ctx is cancelled.
func NewMemoryLimiter(ctx context.Context, max int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{max: max, window: window, buckets: map[string]*bucket{}}
	go l.evict(ctx)
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.allow(l.max, l.window, now)
}

func (l *MemoryLimiter) evict(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				b.mu.Lock()
				expired := now.After(b.resetAt)
				b.mu.Unlock()
				if expired {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ─── Redis fixed window ───────────────────────────────────────────────────────

// RedisLimiter shares the window across every API instance. When Redis
// errors the request is let through.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	k := "littlelemon:rate:" + key
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.PExpire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.WithCtx(ctx).Warn("rate limit: redis unavailable", "error", err)
		return true
	}
	return incr.Val() <= int64(l.max)
}

// ─── Middleware ───────────────────────────────────────────────────────────────

// RateLimit rejects a client IP with 429 once l says its window is spent.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), clientIP(r)) {
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr without
// the port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
