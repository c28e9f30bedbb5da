package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether another attempt under key fits in the window.
// count is the attempt number when the backend tracks it, otherwise 0.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int64, err error)
}

type counterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type redisRateLimiter struct {
	store counterStore
}

// NewRedisRateLimiter counts attempts in fixed windows shared by every
// replica.
func NewRedisRateLimiter(store counterStore) RateLimiter {
	return &redisRateLimiter{store: store}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	count, err := l.store.IncrWithTTL(ctx, l.store.RateLimitKey(key), window)
	if err != nil {
		return false, 0, err
	}
	return count <= int64(limit), count, nil
}

const localLimiterSweepSize = 10_000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
}

// NewLocalRateLimiter keeps a token bucket per key in process memory. It is
// used when Redis is not configured; limits are then per replica.
func NewLocalRateLimiter() RateLimiter {
	return &localRateLimiter{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (l *localRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= localLimiterSweepSize {
		l.sweep(now, window)
	}
	entry, ok := l.entries[key]
	if !ok {
		every := rate.Every(window / time.Duration(limit))
		entry = &localEntry{limiter: rate.NewLimiter(every, limit)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), 0, nil
}

func (l *localRateLimiter) sweep(now time.Time, window time.Duration) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > window {
			delete(l.entries, key)
		}
	}
}
