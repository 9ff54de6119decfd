package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter implements Limiter with per-key token buckets held in process memory.
// Counters are not shared between instances.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets:   make(map[string]*bucket),
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Allow consumes one event.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit Limit) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	k := limit.Name + ":" + key
	b, ok := l.buckets[k]
	if !ok {
		every := limit.Period / time.Duration(max(limit.Rate, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), limit.Rate)}
		l.buckets[k] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Result{Allowed: false, RetryAfter: limit.Period}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay}, nil
	}

	return Result{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
}

// sweep drops buckets idle long enough to have refilled.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleAfter {
			delete(l.buckets, k)
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
