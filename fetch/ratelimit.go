package fetch

import (
	"sync"
	"time"
)

// RateLimitState records when a remote's rate limit resets. Once the reset
// time passes, the next check clears the state.
type RateLimitState struct {
	mu      sync.Mutex
	resetAt time.Time
	now     func() time.Time
}

// NewRateLimitState creates a cleared state. A nil now means time.Now.
func NewRateLimitState(now func() time.Time) *RateLimitState {
	if now == nil {
		now = time.Now
	}
	return &RateLimitState{now: now}
}

// IsRateLimited reports whether the reset time is still in the future,
// clearing an elapsed reset time as a side effect.
func (s *RateLimitState) IsRateLimited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// ResetTime returns the pending reset time, if any.
func (s *RateLimitState) ResetTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return time.Time{}, false
	}
	return s.resetAt, true
}

// SetResetAt marks the remote as rate limited until t. An earlier t never
// shortens a window already in effect.
func (s *RateLimitState) SetResetAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.resetAt) {
		s.resetAt = t
	}
}

// Clear lifts the rate limit immediately.
func (s *RateLimitState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetAt = time.Time{}
}

func (s *RateLimitState) activeLocked() bool {
	if s.resetAt.IsZero() {
		return false
	}
	if !s.now().Before(s.resetAt) {
		s.resetAt = time.Time{}
		return false
	}
	return true
}
