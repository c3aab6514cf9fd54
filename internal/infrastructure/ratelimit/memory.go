package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process fixed-window limiter. Stale windows are
// evicted lazily whenever their key is touched, and in bulk when the map
// grows past a threshold.
type MemoryLimiter struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter creates an in-memory fixed-window limiter.
func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

var _ Limiter = (*MemoryLimiter)(nil)

// evictThreshold bounds map growth between sweeps.
const evictThreshold = 10000

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.windows) > evictThreshold {
		l.sweep(now)
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.config.Window {
		w = &window{start: now}
		l.windows[key] = w
	}

	w.count++
	if w.count > l.config.Limit {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: l.config.Window - now.Sub(w.start),
		}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: l.config.Limit - w.count,
	}, nil
}

// sweep drops windows that have already reset. Caller holds the lock.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.config.Window {
			delete(l.windows, key)
		}
	}
}
