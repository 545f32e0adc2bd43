package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixed-window counter: INCR the key, start the window on first hit, and
// report the remaining window so callers can compute Retry-After. Runs as
// a single script so concurrent instances cannot race the expiry.
var admitScript = redis.NewScript(`
    local current = redis.call('INCR', KEYS[1])
    if current == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    local ttl = redis.call('PTTL', KEYS[1])
    if ttl < 0 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
        ttl = tonumber(ARGV[1])
    end
    return { current, ttl }
`)

// RedisStore shares one request budget across all server instances. It is
// the drop-in substitution for MemoryStore when the deployment runs more
// than one process against the same client population.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Admit implements Store. Errors from Redis are returned to the caller,
// which is expected to fail open rather than reject traffic on an
// infrastructure hiccup.
func (s *RedisStore) Admit(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	vals, err := admitScript.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) != 2 {
		if err == nil {
			err = redis.Nil
		}
		return Result{}, err
	}

	count := int(vals[0])
	resetAt := time.Now().Add(time.Duration(vals[1]) * time.Millisecond)

	if count > limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: limit - count, ResetAt: resetAt}, nil
}
