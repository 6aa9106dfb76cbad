package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a fixed-window gate over outbound provider calls. At most
// capacity acquisitions are granted within any window; further callers
// block until the window boundary, where the budget resets.
//
// Configure capacity strictly below the provider's hard quota to leave
// margin for clock skew and other processes sharing it.
type Limiter struct {
	mu          sync.Mutex
	capacity    int
	window      time.Duration
	windowStart time.Time
	consumed    int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter granting capacity calls per window.
func New(capacity int, window time.Duration) *Limiter {
	return &Limiter{
		capacity: capacity,
		window:   window,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire grants a slot, blocking until one is available. The wait is
// bounded by the window length. Returns ctx.Err() if ctx is done first.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() {
			l.windowStart = now
		}
		// Roll the window forward if it has elapsed.
		for !now.Before(l.windowStart.Add(l.window)) {
			l.windowStart = l.windowStart.Add(l.window)
			l.consumed = 0
		}
		if l.consumed < l.capacity {
			l.consumed++
			l.mu.Unlock()
			return nil
		}
		wait := l.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining returns the unconsumed budget of the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.windowStart.IsZero() || !now.Before(l.windowStart.Add(l.window)) {
		return l.capacity
	}
	return l.capacity - l.consumed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
