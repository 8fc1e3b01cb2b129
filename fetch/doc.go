// Package fetch retrieves remote content defensively.
//
// Client is an HTTP Fetcher that paces requests, retries transient failures
// with exponential backoff, and tracks a self-clearing rate-limit window
// announced by the remote. Cached wraps any Fetcher with a TTL cache.
//
// Recoverable problems never surface as errors: FetchContent reports absence
// of content and logs the cause.
//
//	client := fetch.NewClient(cfg)
//	f := fetch.Cached(client, fetch.NewMemoryCache(), cfg.CacheTTL)
//	if content, ok := f.FetchContent(ctx, u); ok {
//	    ...
//	}
package fetch
