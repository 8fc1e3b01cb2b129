package web

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
	"github.com/kbukum/ingestkit/resilience"
)

// robotsRetry is how long a host whose robots.txt could not be fetched is
// treated as allowing everything before the file is requested again.
const robotsRetry = 10 * time.Minute

// Robots answers robots.txt questions, fetching each host's file once.
// A parsed file is kept for the life of the Robots. A host whose file could
// not be fetched allows everything until robotsRetry has passed, and a
// rate-limited fetch is not remembered at all.
type Robots struct {
	fetcher   fetch.Fetcher
	userAgent string
	clock     resilience.Clock
	log       *logger.Logger

	mu      sync.Mutex
	entries map[string]robotsEntry
}

type robotsEntry struct {
	group *robotstxt.Group
	// expires is zero for a parsed file.
	expires time.Time
}

// RobotsOption configures Robots.
type RobotsOption func(*Robots)

// WithRobotsClock sets the clock used to expire unavailable entries.
func WithRobotsClock(clock resilience.Clock) RobotsOption {
	return func(r *Robots) { r.clock = clock }
}

// NewRobots creates a Robots checker for userAgent.
func NewRobots(fetcher fetch.Fetcher, userAgent string, opts ...RobotsOption) *Robots {
	r := &Robots{
		fetcher:   fetcher,
		userAgent: userAgent,
		clock:     resilience.SystemClock(),
		log:       logger.Get("web"),
		entries:   make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allowed reports whether rawURL may be fetched.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	group := r.group(ctx, u.Scheme+"://"+u.Host)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (r *Robots) group(ctx context.Context, origin string) *robotstxt.Group {
	now := r.clock.Now()
	r.mu.Lock()
	entry, ok := r.entries[origin]
	r.mu.Unlock()
	if ok && (entry.expires.IsZero() || now.Before(entry.expires)) {
		return entry.group
	}

	content, found := r.fetcher.FetchContent(ctx, origin+"/robots.txt")
	if !found {
		if rl, ok := r.fetcher.(fetch.RateLimitReporter); ok && rl.IsRateLimited() {
			return nil
		}
		entry = robotsEntry{expires: now.Add(robotsRetry)}
	} else {
		entry = robotsEntry{}
		data, err := robotstxt.FromStatusAndString(content.StatusCode, content.Body)
		if err != nil {
			r.log.Warn("robots.txt unparseable, allowing all", logger.Fields(logger.FieldURL, origin, logger.FieldError, err))
		} else {
			entry.group = data.FindGroup(r.userAgent)
		}
	}

	r.mu.Lock()
	r.entries[origin] = entry
	r.mu.Unlock()
	return entry.group
}

// RobotsFilter drops items whose location robots.txt disallows.
func RobotsFilter[T Located](robots *Robots) pipeline.Stage[T, T] {
	return pipeline.FilterStage(func(ctx context.Context, item T) (bool, error) {
		return robots.Allowed(ctx, item.Location()), nil
	})
}
