// Package throttle limits how often a confirmation code can be requested.
package throttle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignupThrottle counts signup attempts per email address.
type SignupThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

// Noop never throttles. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

// RedisThrottle is a fixed-window counter stored under signup:<email>.
type RedisThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewRedisThrottle(client *redis.Client, limit int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, limit: int64(limit), window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, email string) (bool, error) {
	key := Key(email)

	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX keeps the window anchored at the first attempt
		pipe.ExpireNX(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("signup throttle: %w", err)
	}

	return incr.Val() <= t.limit, nil
}

// Key is the redis key holding the attempt counter for email.
func Key(email string) string {
	return "signup:" + strings.ToLower(strings.TrimSpace(email))
}
