package fetch

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/resilience"
)

// Stats counts Client activity.
type Stats struct {
	Requests    int64
	Retries     int64
	Successes   int64
	Failures    int64
	RateLimited int64
}

// Client is an HTTP Fetcher with pacing, retries and rate-limit tracking.
type Client struct {
	cfg     Config
	http    *http.Client
	clock   resilience.Clock
	log     *logger.Logger
	state   *RateLimitState
	pacer   *resilience.Throttle
	bucket  *resilience.RateLimiter
	breaker *resilience.CircuitBreaker

	requests    atomic.Int64
	retries     atomic.Int64
	successes   atomic.Int64
	failures    atomic.Int64
	rateLimited atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used for pacing, backoff and rate-limit expiry.
func WithClock(clock resilience.Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a Client. Zero durations and limits take their
// defaults except MinInterval and MaxRetries; start from DefaultConfig to
// get pacing and retries.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg.ApplyDefaults()
	c := &Client{cfg: cfg, clock: resilience.SystemClock()}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.log == nil {
		c.log = logger.Get("fetch")
	}
	c.state = NewRateLimitState(c.clock.Now)
	c.pacer = resilience.NewThrottle(cfg.MinInterval, c.clock)
	if cfg.RequestsPerSecond > 0 {
		c.bucket = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "fetch",
			Rate:  cfg.RequestsPerSecond,
			Burst: cfg.Burst,
			Clock: c.clock,
		})
	}
	if cfg.Breaker.Enabled {
		c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "fetch",
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Clock:       c.clock,
			IsFailure:   isTransient,
			OnStateChange: func(name string, from, to resilience.State) {
				c.log.Warn("circuit breaker state changed", logger.Fields("from", from.String(), "to", to.String()))
			},
		})
	}
	return c
}

// FetchContent fetches url. It returns false without touching the network
// while rate limited, and false after a rate-limit response, a permanent
// error, or exhausted retries.
func (c *Client) FetchContent(ctx context.Context, url string) (Content, bool) {
	log := c.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldURL, url))
	if c.state.IsRateLimited() {
		c.rateLimited.Add(1)
		log.Debug("skipping fetch while rate limited")
		return Content{}, false
	}

	content, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    c.cfg.MaxRetries + 1,
		InitialBackoff: c.cfg.InitialBackoff,
		MaxBackoff:     c.cfg.MaxBackoff,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        isTransient,
		Clock:          c.clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.retries.Add(1)
			log.Debug("retrying fetch", logger.Fields(
				logger.FieldAttempt, attempt, logger.FieldError, err, "backoff_ms", backoff.Milliseconds()))
		},
	}, func() (Content, error) {
		return c.attempt(ctx, url)
	})
	if err != nil {
		c.failures.Add(1)
		if errors.IsCode(err, errors.ErrCodeRateLimited) {
			log.Warn("rate limited by remote", logger.Fields(logger.FieldError, err))
		} else {
			log.Warn("fetch failed", logger.Fields(logger.FieldError, errors.FetchError(url, err)))
		}
		return Content{}, false
	}
	c.successes.Add(1)
	return content, true
}

// IsRateLimited reports whether the remote's rate-limit window is open.
func (c *Client) IsRateLimited() bool { return c.state.IsRateLimited() }

// RateLimitResetTime returns when the current rate-limit window ends.
func (c *Client) RateLimitResetTime() (time.Time, bool) { return c.state.ResetTime() }

// ClearRateLimit lifts the rate limit immediately.
func (c *Client) ClearRateLimit() { c.state.Clear() }

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:    c.requests.Load(),
		Retries:     c.retries.Load(),
		Successes:   c.successes.Load(),
		Failures:    c.failures.Load(),
		RateLimited: c.rateLimited.Load(),
	}
}

// attempt performs one paced request.
func (c *Client) attempt(ctx context.Context, url string) (Content, error) {
	if c.state.IsRateLimited() {
		resetAt, _ := c.state.ResetTime()
		return Content{}, errors.RateLimited(resetAt)
	}
	if err := c.pacer.Wait(ctx); err != nil {
		return Content{}, err
	}
	if c.bucket != nil {
		if err := c.bucket.Wait(ctx); err != nil {
			return Content{}, err
		}
	}
	if c.breaker == nil {
		return c.do(ctx, url)
	}
	var content Content
	err := c.breaker.Execute(func() error {
		var err error
		content, err = c.do(ctx, url)
		return err
	})
	return content, err
}

func (c *Client) do(ctx context.Context, url string) (Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Content{}, &statusError{err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	c.requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Content{}, ctx.Err()
		}
		return Content{}, &statusError{retryable: true, err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable && resp.Header.Get("Retry-After") != "":
		resetAt := c.resetAt(resp.Header.Get("Retry-After"))
		c.state.SetResetAt(resetAt)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Content{}, errors.RateLimited(resetAt).WithDetail("status", resp.StatusCode)
	case resp.StatusCode >= 500:
		return Content{}, &statusError{code: resp.StatusCode, retryable: true}
	case resp.StatusCode >= 400:
		return Content{}, &statusError{code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := readBody(resp.Body, contentType, c.cfg.MaxBodyBytes)
	if stderrors.Is(err, errBodyTooLarge) {
		return Content{}, &statusError{code: resp.StatusCode, err: err}
	}
	if err != nil {
		return Content{}, &statusError{retryable: true, err: err}
	}
	return Content{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		Body:        body,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
		FetchedAt:   c.clock.Now(),
	}, nil
}

// resetAt parses a Retry-After header given either as seconds or as an
// HTTP date, falling back to RateLimitBackoff.
func (c *Client) resetAt(retryAfter string) time.Time {
	now := c.clock.Now()
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return now.Add(time.Duration(secs) * time.Second)
		}
		if t, err := http.ParseTime(retryAfter); err == nil && t.After(now) {
			return t
		}
	}
	return now.Add(c.cfg.RateLimitBackoff)
}

var errBodyTooLarge = stderrors.New("response body exceeds max_body_bytes")

// readBody reads at most limit bytes and decodes them to UTF-8. A longer
// body is errBodyTooLarge rather than a truncated page.
func readBody(r io.Reader, contentType string, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, limit)
	}
	decoded, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw), nil
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// statusError is a failed request. Only retryable ones are retried.
type statusError struct {
	code      int
	retryable bool
	err       error
}

func (e *statusError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var se *statusError
	if stderrors.As(err, &se) {
		return se.retryable
	}
	return false
}
