package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds how often a subject may perform an action within a
// window. Implementations must fail open: a limiter error should not block
// the operation, only skip the limit.
type RateLimiter interface {
	Allow(ctx context.Context, scope string, subject string, limit int, window time.Duration) (bool, error)
}

var otpRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisRateLimiter implements distributed rate limiting with a fixed window
// counter in Redis.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRateLimiter creates a Redis-backed rate limiter
func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "nexbank:rate_limit"
	}
	return &RedisRateLimiter{client: client, prefix: prefix}
}

// Allow consumes one unit from the subject's window and reports whether the
// limit still holds
func (r *RedisRateLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, subject)
	raw, err := otpRateLimitScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return true, err
	}

	count, ok := raw.(int64)
	if !ok {
		return true, fmt.Errorf("unexpected limiter response type: %T", raw)
	}

	return count <= int64(limit), nil
}
