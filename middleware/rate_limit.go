package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// Limiter decides whether one more request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a per-key token bucket refilling perMinute tokens a minute.
type MemoryLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

const limiterIdleTTL = 5 * time.Minute

func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	perMinute = max(perMinute, 1)
	return &MemoryLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupExpiredLocked(now)

	entry, ok := m.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = entry
	}
	entry.expires = now.Add(limiterIdleTTL)
	return entry.limiter.AllowN(now, 1), nil
}

func (m *MemoryLimiter) cleanupExpiredLocked(now time.Time) {
	for key, entry := range m.limiters {
		if now.After(entry.expires) {
			delete(m.limiters, key)
		}
	}
}

// RedisLimiter is a fixed one-minute window shared by every instance.
// It defers to fallback whenever Redis errors.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int64
	fallback  Limiter
	now       func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int, fallback Limiter) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		perMinute: int64(max(perMinute, 1)),
		fallback:  fallback,
		now:       time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := r.now().Unix() / 60
	rkey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, rkey)
		// No NX flag: servers before Redis 7 reject it and abort the MULTI.
		pipe.Expire(ctx, rkey, 2*time.Minute)
		return nil
	})
	if err != nil {
		utils.Logger.Warn("redis rate limit unavailable, using in-memory limiter", zap.Error(err))
		return r.fallback.Allow(ctx, key)
	}
	return incr.Val() <= r.perMinute, nil
}

// NewLimiter picks Redis when a client is available.
func NewLimiter(client *redis.Client, perMinute int) Limiter {
	mem := NewMemoryLimiter(perMinute)
	if client == nil {
		return mem
	}
	return NewRedisLimiter(client, perMinute, mem)
}

// RateLimit rejects with 429 once the caller's IP exceeds the budget on a route.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.ClientIP() + ":" + ctx.FullPath()
		allowed, err := limiter.Allow(ctx.Request.Context(), key)
		if err != nil {
			// Fail open.
			utils.Logger.Warn("rate limiter error", zap.String("key", key), zap.Error(err))
			ctx.Next()
			return
		}
		if !allowed {
			RespondError(ctx, services.ErrRateLimited)
			return
		}
		ctx.Next()
	}
}
