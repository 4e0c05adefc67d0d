package middleware

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peochain/peochain-api/utils"
	"github.com/redis/go-redis/v9"
)

// Store counts hits per key within a fixed window. It is injected rather
// than held as process-global state so a multi-instance deployment can
// share a Redis store while a single instance (and the tests) use the
// in-memory one.
type Store interface {
	// Incr records a hit for key and returns the hit count within the
	// current window and the time left until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type bucket struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a fixed-window counter backed by a map.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryStore creates an empty in-memory rate-limit store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

// Incr implements Store
func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	b, ok := m.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{count: 0, resetAt: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++

	if len(m.buckets) > 4096 {
		m.prune(now)
	}

	return b.count, b.resetAt.Sub(now), nil
}

// prune drops expired buckets; caller holds the lock
func (m *MemoryStore) prune(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.resetAt) {
			delete(m.buckets, key)
		}
	}
}

// RedisStore is a fixed-window counter shared across API instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed rate-limit store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements Store
func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}

// RateLimit rejects clients that exceed limit hits per window, keyed by
// client address. Store failures fail open: signups must not depend on the
// limiter being healthy.
func RateLimit(store Store, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:waitlist:" + c.ClientIP()
		count, ttl, err := store.Incr(c.Request.Context(), key, window)
		if err != nil {
			utils.LogError("Rate limit store error, allowing request: %v", err)
			c.Next()
			return
		}

		if count > int64(limit) {
			retryAfter := int(math.Ceil(ttl.Seconds()))
			if count > int64(limit)*5 {
				// Way past the limit, almost certainly a script
				utils.LogError("Suspicious signup activity from %s: %d attempts in window", c.ClientIP(), count)
			}
			utils.LogInfo("Rate limit exceeded for %s (%d/%d)", c.ClientIP(), count, limit)
			utils.TooManyRequests(c, "Too many signup attempts. Please try again later.", retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
