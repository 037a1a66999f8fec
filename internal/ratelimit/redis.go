package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tapgate:scans:"

// Redis counts scans per key in fixed windows using INCR with expiry,
// sharing state across instances. It fails open: on a backend error the
// scan is allowed and the error returned for logging.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedis creates a limiter allowing limit scans per key per window.
func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{client: client, limit: limit, window: window}
}

// Allow increments the key's window counter and checks it against the limit.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := redisKeyPrefix + key
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(r.limit), nil
}
