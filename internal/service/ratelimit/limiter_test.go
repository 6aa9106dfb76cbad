package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives the limiter without real sleeps. Sleeping advances the
// clock by the requested duration.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.t = c.t.Add(d)
	return nil
}

func newTestLimiter(capacity int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	l := New(capacity, window)
	l.now = clock.now
	l.sleep = clock.sleep
	return l, clock
}

func TestAcquireWithinCapacity(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	start := clock.t

	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if !clock.t.Equal(start) {
		t.Fatalf("acquires within capacity should not block, clock moved to %v", clock.t)
	}
}

func TestThirdAcquireWaitsForWindowBoundary(t *testing.T) {
	// capacity=2, window=60s; three acquires at t=0 must grant at
	// t=0, t=0, t=60.
	l, clock := newTestLimiter(2, time.Minute)
	start := clock.t

	grants := make([]time.Time, 0, 3)
	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		grants = append(grants, clock.t)
	}

	if !grants[0].Equal(start) || !grants[1].Equal(start) {
		t.Errorf("first two grants should be immediate, got %v %v", grants[0], grants[1])
	}
	if got, want := grants[2], start.Add(time.Minute); !got.Equal(want) {
		t.Errorf("third grant at %v, want %v", got, want)
	}
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	const capacity = 5
	window := time.Minute
	l, clock := newTestLimiter(capacity, window)

	grants := make([]time.Time, 0, 23)
	for i := 0; i < 23; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		grants = append(grants, clock.t)
	}

	// Slide a window across every grant instant and count the grants
	// inside it.
	for i, g := range grants {
		count := 0
		for _, other := range grants {
			if !other.Before(g) && other.Before(g.Add(window)) {
				count++
			}
		}
		if count > capacity {
			t.Fatalf("window starting at grant %d holds %d grants, capacity %d", i, count, capacity)
		}
	}
}

func TestBudgetResetsAfterIdleGap(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}
	// Idle well past several window boundaries.
	clock.t = clock.t.Add(5 * time.Minute)
	before := clock.t
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after gap: %v", err)
	}
	if !clock.t.Equal(before) {
		t.Errorf("acquire after idle gap should be immediate, clock moved to %v", clock.t)
	}
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	l.sleep = sleepCtx // real sleep so cancellation is exercised

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRemaining(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	if got := l.Remaining(); got != 3 {
		t.Fatalf("fresh limiter remaining = %d, want 3", got)
	}
	_ = l.Acquire(context.Background())
	if got := l.Remaining(); got != 2 {
		t.Fatalf("remaining after one acquire = %d, want 2", got)
	}
}
