// Package ratelimit provides fixed-rate request limiters backed by Redis or process memory.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Limit allows Rate events per Period for a single key.
type Limit struct {
	Name   string
	Rate   int
	Period time.Duration
}

// PerMinute returns a named limit of n events per minute.
func PerMinute(name string, n int) Limit {
	return Limit{Name: name, Rate: n, Period: time.Minute}
}

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter checks and consumes one event for key under limit.
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (Result, error)
}

// RedisLimiter implements Limiter with GCRA on Redis, shared by all instances.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{limiter: redis_rate.NewLimiter(client)}
}

// Allow consumes one event.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit Limit) (Result, error) {
	res, err := l.limiter.Allow(ctx, limit.Name+":"+key, redis_rate.Limit{
		Rate:   limit.Rate,
		Burst:  limit.Rate,
		Period: limit.Period,
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", limit.Name, err)
	}
	return Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

var _ Limiter = (*RedisLimiter)(nil)
