package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/resilience"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type scriptedServer struct {
	*httptest.Server
	hits atomic.Int64
}

// newScriptedServer replies with responses[i] for the i-th request and
// repeats the last one afterwards.
func newScriptedServer(t *testing.T, responses ...func(http.ResponseWriter)) *scriptedServer {
	t.Helper()
	s := &scriptedServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		i := int(s.hits.Add(1)) - 1
		responses[min(i, len(responses)-1)](w)
	}))
	t.Cleanup(s.Close)
	return s
}

func status(code int, headers ...string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		for i := 0; i+1 < len(headers); i += 2 {
			w.Header().Set(headers[i], headers[i+1])
		}
		w.WriteHeader(code)
	}
}

func body(contentType, text string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(text))
	}
}

func newTestClient(cfg Config) (*Client, *resilience.ManualClock) {
	clock := resilience.NewManualClock(epoch)
	return NewClient(cfg, WithClock(clock), WithLogger(logger.NewNop())), clock
}

func TestClient_Success(t *testing.T) {
	srv := newScriptedServer(t, body("text/html; charset=utf-8", "<p>hi</p>"))
	c, _ := newTestClient(Config{})

	content, ok := c.FetchContent(context.Background(), srv.URL+"/a")
	if !ok {
		t.Fatal("expected content")
	}
	if content.Body != "<p>hi</p>" || content.StatusCode != 200 || !content.FetchedAt.Equal(epoch) {
		t.Errorf("unexpected content %+v", content)
	}
	if st := c.Stats(); st.Requests != 1 || st.Successes != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestClient_DecodesCharset(t *testing.T) {
	srv := newScriptedServer(t, body("text/html; charset=iso-8859-1", "caf\xe9"))
	c, _ := newTestClient(Config{})
	content, ok := c.FetchContent(context.Background(), srv.URL)
	if !ok || content.Body != "café" {
		t.Errorf("expected decoded body, got %q (%v)", content.Body, ok)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	srv := newScriptedServer(t, status(500), status(502), body("text/plain", "ok"))
	c, clock := newTestClient(Config{MaxRetries: 3})

	content, ok := c.FetchContent(context.Background(), srv.URL)
	if !ok || content.Body != "ok" {
		t.Fatalf("expected success after retries, got %+v (%v)", content, ok)
	}
	if st := c.Stats(); st.Requests != 3 || st.Retries != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
	if len(clock.Sleeps()) == 0 {
		t.Error("expected backoff sleeps")
	}
}

func TestClient_ExhaustedRetriesReturnNoContent(t *testing.T) {
	srv := newScriptedServer(t, status(503))
	c, _ := newTestClient(Config{MaxRetries: 2})

	if _, ok := c.FetchContent(context.Background(), srv.URL); ok {
		t.Fatal("expected no content")
	}
	if got := srv.hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if c.IsRateLimited() {
		t.Error("503 without Retry-After is not a rate limit")
	}
	if st := c.Stats(); st.Failures != 1 {
		t.Errorf("expected 1 failure, got %+v", st)
	}
}

func TestClient_PermanentErrorNotRetried(t *testing.T) {
	srv := newScriptedServer(t, status(404))
	c, _ := newTestClient(Config{MaxRetries: 3})
	if _, ok := c.FetchContent(context.Background(), srv.URL); ok {
		t.Fatal("expected no content")
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestClient_BodyLimit(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantOK bool
	}{
		{"at limit", "0123456789", true},
		{"over limit", "0123456789+", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newScriptedServer(t, body("text/plain", tt.text))
			c, _ := newTestClient(Config{MaxRetries: 3, MaxBodyBytes: 10})

			content, ok := c.FetchContent(context.Background(), srv.URL)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v with %q", tt.wantOK, ok, content.Body)
			}
			if ok && content.Body != tt.text {
				t.Errorf("expected full body, got %q", content.Body)
			}
			if got := srv.hits.Load(); got != 1 {
				t.Errorf("an oversized body is not retried, got %d attempts", got)
			}
		})
	}
}

func TestClient_OversizedBodyIsNotCached(t *testing.T) {
	srv := newScriptedServer(t, body("text/plain", strings.Repeat("x", 64)))
	c, _ := newTestClient(Config{MaxBodyBytes: 16})
	cache := NewMemoryCache(time.Now)
	f := Cached(c, cache, time.Hour).WithLogger(logger.NewNop())

	if _, ok := f.FetchContent(context.Background(), srv.URL); ok {
		t.Fatal("expected no content for an oversized body")
	}
	if _, ok, _ := cache.Get(context.Background(), srv.URL); ok {
		t.Error("a truncated page must not be cached")
	}
}

func TestClient_InvalidURL(t *testing.T) {
	c, _ := newTestClient(Config{})
	if _, ok := c.FetchContent(context.Background(), "http://[::1"); ok {
		t.Error("expected no content for invalid URL")
	}
	if c.Stats().Requests != 0 {
		t.Error("expected no request for invalid URL")
	}
}

func TestClient_RateLimitResponses(t *testing.T) {
	tests := []struct {
		name      string
		response  func(http.ResponseWriter)
		wantReset time.Time
	}{
		{"429 seconds", status(429, "Retry-After", "120"), epoch.Add(120 * time.Second)},
		{"429 http date", status(429, "Retry-After", epoch.Add(time.Hour).Format(http.TimeFormat)), epoch.Add(time.Hour)},
		{"429 default backoff", status(429), epoch.Add(5 * time.Minute)},
		{"503 with retry-after", status(503, "Retry-After", "30"), epoch.Add(30 * time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newScriptedServer(t, tt.response)
			c, _ := newTestClient(Config{MaxRetries: 3, RateLimitBackoff: 5 * time.Minute})

			if _, ok := c.FetchContent(context.Background(), srv.URL); ok {
				t.Fatal("expected no content")
			}
			if srv.hits.Load() != 1 {
				t.Errorf("rate limit must not be retried, got %d attempts", srv.hits.Load())
			}
			got, ok := c.RateLimitResetTime()
			if !ok || !got.Equal(tt.wantReset) {
				t.Errorf("expected reset %v, got %v (%v)", tt.wantReset, got, ok)
			}
		})
	}
}

func TestClient_RateLimitWindow(t *testing.T) {
	srv := newScriptedServer(t, status(429, "Retry-After", "60"), body("text/plain", "back"))
	c, clock := newTestClient(Config{})
	ctx := context.Background()

	_, _ = c.FetchContent(ctx, srv.URL)
	if !c.IsRateLimited() {
		t.Fatal("expected rate limited")
	}

	if _, ok := c.FetchContent(ctx, srv.URL); ok {
		t.Fatal("expected no content while limited")
	}
	if srv.hits.Load() != 1 {
		t.Errorf("no request may be sent while limited, got %d", srv.hits.Load())
	}
	if c.Stats().RateLimited != 1 {
		t.Errorf("expected one skipped fetch, got %+v", c.Stats())
	}

	clock.Advance(61 * time.Second)
	if c.IsRateLimited() {
		t.Fatal("expected rate limit to clear itself")
	}
	content, ok := c.FetchContent(ctx, srv.URL)
	if !ok || content.Body != "back" {
		t.Errorf("expected content after window, got %+v (%v)", content, ok)
	}
}

func TestClient_ClearRateLimit(t *testing.T) {
	srv := newScriptedServer(t, status(429, "Retry-After", "3600"), body("text/plain", "ok"))
	c, _ := newTestClient(Config{})
	_, _ = c.FetchContent(context.Background(), srv.URL)
	c.ClearRateLimit()
	if _, ok := c.FetchContent(context.Background(), srv.URL); !ok {
		t.Error("expected content after clearing")
	}
}

func TestClient_ThrottlesRequests(t *testing.T) {
	srv := newScriptedServer(t, body("text/plain", "ok"))
	c, clock := newTestClient(Config{MinInterval: 2 * time.Second})
	ctx := context.Background()

	for range 3 {
		if _, ok := c.FetchContent(ctx, srv.URL); !ok {
			t.Fatal("expected content")
		}
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 2*time.Second || sleeps[1] != 2*time.Second {
		t.Errorf("expected two 2s throttle waits, got %v", sleeps)
	}
}

func TestClient_CircuitBreakerStopsRequests(t *testing.T) {
	srv := newScriptedServer(t, status(500))
	c, _ := newTestClient(Config{
		MaxRetries: 1,
		Breaker:    BreakerConfig{Enabled: true, MaxFailures: 2, Timeout: time.Hour},
	})
	ctx := context.Background()

	_, _ = c.FetchContent(ctx, srv.URL)
	if srv.hits.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", srv.hits.Load())
	}
	if _, ok := c.FetchContent(ctx, srv.URL); ok {
		t.Fatal("expected no content with open circuit")
	}
	if srv.hits.Load() != 2 {
		t.Errorf("open circuit must not send requests, got %d", srv.hits.Load())
	}
}

func TestClient_CancelledContext(t *testing.T) {
	srv := newScriptedServer(t, body("text/plain", "ok"))
	c, _ := newTestClient(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := c.FetchContent(ctx, srv.URL); ok {
		t.Error("expected no content for cancelled context")
	}
	if srv.hits.Load() != 0 {
		t.Error("expected no request")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.MinInterval != time.Second || cfg.MaxRetries != 3 || cfg.UserAgent == "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	cfg.MaxRetries = 50
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max_retries > 10")
	}
}

func TestConfig_ApplyDefaultsKeepsExplicitZero(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.MaxRetries != 0 || cfg.MinInterval != 0 {
		t.Errorf("zero retries and interval must survive defaults, got %d and %v", cfg.MaxRetries, cfg.MinInterval)
	}
	if cfg.Timeout == 0 || cfg.MaxBodyBytes == 0 {
		t.Errorf("other fields should be defaulted, got %+v", cfg)
	}
}

func TestClient_ZeroRetriesAndInterval(t *testing.T) {
	srv := newScriptedServer(t, status(500))
	c, clock := newTestClient(Config{MaxRetries: 0, MinInterval: 0})
	ctx := context.Background()

	for range 2 {
		if _, ok := c.FetchContent(ctx, srv.URL); ok {
			t.Fatal("expected no content")
		}
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("expected one attempt per fetch, got %d requests", got)
	}
	if sleeps := clock.Sleeps(); len(sleeps) != 0 {
		t.Errorf("expected no throttle or backoff waits, got %v", sleeps)
	}
}
