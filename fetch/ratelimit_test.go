package fetch

import (
	"testing"
	"time"
)

type manualNow struct{ t time.Time }

func (m *manualNow) now() time.Time { return m.t }

func TestRateLimitState_SelfClears(t *testing.T) {
	clock := &manualNow{t: time.Unix(1000, 0)}
	s := NewRateLimitState(clock.now)
	if s.IsRateLimited() {
		t.Fatal("new state must not be rate limited")
	}

	reset := clock.t.Add(time.Minute)
	s.SetResetAt(reset)
	if !s.IsRateLimited() {
		t.Fatal("expected rate limited before reset")
	}
	if got, ok := s.ResetTime(); !ok || !got.Equal(reset) {
		t.Errorf("expected reset %v, got %v (%v)", reset, got, ok)
	}

	clock.t = reset
	if s.IsRateLimited() {
		t.Error("expected cleared once reset time is reached")
	}
	if _, ok := s.ResetTime(); ok {
		t.Error("expected no reset time after clearing")
	}
}

func TestRateLimitState_EarlierResetDoesNotShorten(t *testing.T) {
	clock := &manualNow{t: time.Unix(0, 0)}
	s := NewRateLimitState(clock.now)
	s.SetResetAt(clock.t.Add(time.Hour))
	s.SetResetAt(clock.t.Add(time.Minute))
	got, _ := s.ResetTime()
	if !got.Equal(clock.t.Add(time.Hour)) {
		t.Errorf("window shortened to %v", got)
	}
}

func TestRateLimitState_Clear(t *testing.T) {
	clock := &manualNow{t: time.Unix(0, 0)}
	s := NewRateLimitState(clock.now)
	s.SetResetAt(clock.t.Add(time.Hour))
	s.Clear()
	if s.IsRateLimited() {
		t.Error("expected cleared state")
	}
}
