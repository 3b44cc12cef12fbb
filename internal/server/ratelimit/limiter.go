// Package ratelimit bounds how often a key (an email hash) may call an
// operation inside a fixed time window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// counter increments key, arms its expiry on the first hit of a window and
// returns the new value.
type counter func(ctx context.Context, key string, window time.Duration) (int64, error)

// RedisLimiter is a fixed-window counter. The window starts with the first
// hit and is not extended by later ones, denied hits included.
type RedisLimiter struct {
	prefix string
	limit  int64
	window time.Duration
	incr   counter
}

// redisCounter runs INCR and EXPIRE NX in one MULTI/EXEC so a key never lives
// without an expiry and keeps the one set by its first hit.
func redisCounter(client redis.Cmdable) counter {
	return func(ctx context.Context, key string, window time.Duration) (int64, error) {
		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
		return incr.Val(), nil
	}
}

func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{prefix: prefix, limit: int64(limit), window: window, incr: redisCounter(client)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.incr(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return false, fmt.Errorf("rate counter: %w", err)
	}
	return n <= l.limit, nil
}

// Noop allows everything. Used when no Redis is configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Check consults l and returns common.ErrRateLimited when denied. Limiter
// failures are logged and the call is let through.
func Check(ctx context.Context, l Limiter, key string, logger logging.Logger) error {
	ok, err := l.Allow(ctx, key)
	if err != nil {
		logger.Warn(ctx, "rate limiter unavailable, allowing", "error", err)
		return nil
	}
	if !ok {
		return common.ErrRateLimited
	}
	return nil
}
