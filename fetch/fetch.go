package fetch

import (
	"context"
	"time"
)

// Content is a successfully fetched document. Body is UTF-8 text.
type Content struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"`
	Body        string    `json:"body"`
	ContentType string    `json:"content_type,omitempty"`
	StatusCode  int       `json:"status_code"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Fetcher retrieves content by URL. The boolean is false when no content is
// available for any reason: rate limiting, exhausted retries, or a
// permanent error.
type Fetcher interface {
	FetchContent(ctx context.Context, url string) (Content, bool)
}

// RateLimitReporter exposes the rate-limit window of a Fetcher.
type RateLimitReporter interface {
	IsRateLimited() bool
	RateLimitResetTime() (time.Time, bool)
	ClearRateLimit()
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (Content, bool)

// FetchContent calls f(ctx, url).
func (f FetcherFunc) FetchContent(ctx context.Context, url string) (Content, bool) {
	return f(ctx, url)
}
