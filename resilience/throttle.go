package resilience

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces successive operations at least Interval apart.
// Callers reserve slots in arrival order, so concurrent callers are
// serialized rather than dropped.
type Throttle struct {
	interval time.Duration
	clock    Clock

	mu   sync.Mutex
	next time.Time
}

// NewThrottle creates a Throttle. A nil clock means SystemClock.
func NewThrottle(interval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock()
	}
	return &Throttle{interval: interval, clock: clock}
}

// Wait blocks until the caller's slot arrives or ctx is done. A caller
// whose ctx ends before its slot gives the slot back when no later caller
// has reserved one since.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil || t.interval <= 0 {
		return err
	}
	t.mu.Lock()
	now := t.clock.Now()
	prev := t.next
	slot := prev
	if slot.Before(now) {
		slot = now
	}
	reserved := slot.Add(t.interval)
	t.next = reserved
	t.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	if err := t.clock.Sleep(ctx, wait); err != nil {
		t.mu.Lock()
		if t.next.Equal(reserved) {
			t.next = prev
		}
		t.mu.Unlock()
		return err
	}
	return nil
}

// Interval returns the configured minimum interval.
func (t *Throttle) Interval() time.Duration { return t.interval }
