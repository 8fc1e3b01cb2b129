package fetch

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/ingestkit/logger"
)

var errNoContent = stderrors.New("no content")

// CachedFetcher serves content from a Cache and falls back to an inner
// Fetcher on a miss. Concurrent misses for one URL share a single fetch.
type CachedFetcher struct {
	inner Fetcher
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Cached wraps inner with cache. Successful fetches are stored for ttl.
func Cached(inner Fetcher, cache Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get("fetch.cache"),
	}
}

// WithLogger replaces the logger and returns the receiver.
func (f *CachedFetcher) WithLogger(l *logger.Logger) *CachedFetcher {
	f.log = l
	return f
}

// FetchContent returns cached content when present and otherwise fetches and
// caches it. Cache failures are logged and treated as misses.
func (f *CachedFetcher) FetchContent(ctx context.Context, url string) (Content, bool) {
	content, ok, err := f.cache.Get(ctx, url)
	if err != nil {
		f.log.Warn("cache read failed", logger.Fields(logger.FieldURL, url, logger.FieldError, err))
	}
	if ok {
		f.hits.Add(1)
		return content, true
	}
	f.misses.Add(1)

	v, err, _ := f.group.Do(url, func() (any, error) {
		content, ok := f.inner.FetchContent(ctx, url)
		if !ok {
			return nil, errNoContent
		}
		if err := f.cache.Set(ctx, url, content, f.ttl); err != nil {
			f.log.Warn("cache write failed", logger.Fields(logger.FieldURL, url, logger.FieldError, err))
		}
		return content, nil
	})
	if err != nil {
		return Content{}, false
	}
	return v.(Content), true
}

// Invalidate drops url from the cache.
func (f *CachedFetcher) Invalidate(ctx context.Context, url string) error {
	return f.cache.Delete(ctx, url)
}

// Hits returns the number of cache hits.
func (f *CachedFetcher) Hits() int64 { return f.hits.Load() }

// Misses returns the number of cache misses.
func (f *CachedFetcher) Misses() int64 { return f.misses.Load() }

// IsRateLimited delegates to the inner fetcher when it tracks rate limits.
func (f *CachedFetcher) IsRateLimited() bool {
	if r, ok := f.inner.(RateLimitReporter); ok {
		return r.IsRateLimited()
	}
	return false
}

// RateLimitResetTime delegates to the inner fetcher when it tracks rate limits.
func (f *CachedFetcher) RateLimitResetTime() (time.Time, bool) {
	if r, ok := f.inner.(RateLimitReporter); ok {
		return r.RateLimitResetTime()
	}
	return time.Time{}, false
}

// ClearRateLimit delegates to the inner fetcher when it tracks rate limits.
func (f *CachedFetcher) ClearRateLimit() {
	if r, ok := f.inner.(RateLimitReporter); ok {
		r.ClearRateLimit()
	}
}
