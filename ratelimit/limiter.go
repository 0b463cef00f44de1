package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one attempt against a fixed window
type Decision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// MemoryLimiter counts attempts per key in process memory
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	hits      map[string]window
	lastSweep time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemory(limit int, period time.Duration) *MemoryLimiter {
	limit, period = normalize(limit, period)
	return &MemoryLimiter{
		limit:  limit,
		window: period,
		now:    time.Now,
		hits:   make(map[string]window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) Decision {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	w, ok := l.hits[key]
	if !ok || now.After(w.resetAt) {
		w = window{resetAt: now.Add(l.window)}
	}
	w.count++
	l.hits[key] = w
	return decide(w.count, l.limit, w.resetAt)
}

// sweep drops expired windows; it runs at most once per window length
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.hits {
		if now.After(w.resetAt) {
			delete(l.hits, k)
		}
	}
	l.lastSweep = now
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func normalize(limit int, period time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	return limit, period
}
