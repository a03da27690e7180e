package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wsforge-go/wsforge"
)

// RedisRateLimiter is a distributed fixed-window counter limiter keyed by
// connection id, for deployments running more than one wsforge process
// behind a shared Redis instance — the distributed counterpart to the
// teacher's in-memory sliding-window RateLimiter (api/internal/middleware/ratelimit.go).
type RedisRateLimiter struct {
	client     *redis.Client
	maxPerWindow int64
	window     time.Duration
}

// NewRedisRateLimiter builds a limiter admitting at most maxPerWindow
// dispatches per connection within window.
func NewRedisRateLimiter(client *redis.Client, maxPerWindow int64, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, maxPerWindow: maxPerWindow, window: window}
}

// Middleware rejects a dispatch with KindCustom once the connection's
// window budget is exhausted, incrementing and expiring a per-connection
// Redis counter.
func (r *RedisRateLimiter) Middleware() wsforge.Middleware {
	return func(ctx *wsforge.Context, next wsforge.Next) (wsforge.Response, error) {
		allowed, err := r.allow(context.Background(), ctx.Conn.ID())
		if err != nil {
			// Fail open: a Redis outage must not take the whole server down.
			return next(ctx)
		}
		if !allowed {
			return wsforge.Response{}, wsforge.NewCustomError("rate limit exceeded")
		}
		return next(ctx)
	}
}

func (r *RedisRateLimiter) allow(ctx context.Context, connID wsforge.ConnectionID) (bool, error) {
	key := fmt.Sprintf("wsforge:ratelimit:%s", connID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= r.maxPerWindow, nil
}
