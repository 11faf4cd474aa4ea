package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// WindowLimiter is a fixed-window counter shared through Redis, so every API
// replica sees the same per-key count.
type WindowLimiter struct {
	client *goredis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewWindowLimiter(client *goredis.Client, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow counts one request for key. The counter's TTL is set when the window
// opens; once it expires the next request starts a new window.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.client == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	if key == "" || l.window <= 0 {
		return Decision{}, fmt.Errorf("invalid rate window payload")
	}

	redisKey := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("set rate key ttl: %w", err)
		}
	}

	d := Decision{Allowed: count <= l.limit, Count: count, Limit: l.limit}
	if d.Allowed {
		return d, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("read rate key ttl: %w", err)
	}
	if ttl < 0 {
		// a key left without TTL would block forever; re-arm it
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
		ttl = l.window
	}
	d.RetryAfter = ttl
	return d, nil
}
