package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limited := 0
	rl := NewRateLimiter(RateLimiterConfig{
		Name: "test", Rate: 2, Burst: 3, Clock: clock,
		OnLimit: func(string) { limited++ },
	})
	for i := range 3 {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("request beyond burst should be rejected")
	}
	if limited != 1 {
		t.Errorf("expected OnLimit once, got %d", limited)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2, Burst: 1, Clock: clock})
	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow() {
		t.Fatal("second request should be rejected")
	}
	clock.Advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiter_WaitSleepsForDebt(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	rl := NewRateLimiter(RateLimiterConfig{Rate: 4, Burst: 1, Clock: clock})
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	got := clock.Sleeps()
	if len(got) != 1 || got[0] != 250*time.Millisecond {
		t.Errorf("expected one 250ms sleep, got %v", got)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, Clock: NewManualClock(time.Unix(0, 0))})
	if err := rl.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rl.Execute(func() error { return nil }); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5})
	if rl.Rate() != 0.5 || rl.Burst() != 1 {
		t.Errorf("unexpected rate/burst %v/%d", rl.Rate(), rl.Burst())
	}
}
