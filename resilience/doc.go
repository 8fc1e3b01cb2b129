// Package resilience provides the pacing and fault-tolerance primitives used
// by the fetch layer:
//   - Retry: retries failed operations with capped exponential backoff
//   - Throttle: enforces a minimum interval between successive operations
//   - RateLimiter: token bucket for sustained request rates
//   - CircuitBreaker: fails fast while a remote keeps failing
//
// All primitives read time through a Clock so tests can run without sleeping:
//
//	clock := resilience.NewManualClock(time.Unix(0, 0))
//	th := resilience.NewThrottle(time.Second, clock)
//	_ = th.Wait(ctx) // returns immediately, advancing clock when needed
package resilience
