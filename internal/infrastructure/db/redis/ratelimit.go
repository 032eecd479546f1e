package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ratelimit"

// WindowLimiter is a fixed-window request counter shared by every instance
// pointing at the same Redis. Key format: <prefix>:<key>:<window index>.
type WindowLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewWindowLimiter allows limit requests per key in each window.
func NewWindowLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *WindowLimiter {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &WindowLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow counts one request for key. When the limit is exceeded it also
// returns how long until the current window closes. Errors leave the
// decision to the caller.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit: %w", err)
	}

	if incr.Val() <= l.limit {
		return true, 0, nil
	}
	windowEnd := time.Unix(0, (slot+1)*int64(l.window))
	return false, windowEnd.Sub(now), nil
}
