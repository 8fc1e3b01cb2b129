package web

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

// LinkExtractor is a Stage that fetches a Page and yields the links on it
// in document order. A page without content yields nothing.
type LinkExtractor struct {
	fetcher  fetch.Fetcher
	sameHost bool
	follow   []*regexp.Regexp
	exclude  []*regexp.Regexp
	log      *logger.Logger
}

var _ pipeline.Stage[Page, Link] = (*LinkExtractor)(nil)

// NewLinkExtractor creates a LinkExtractor with the link rules of cfg.
func NewLinkExtractor(fetcher fetch.Fetcher, cfg Config) (*LinkExtractor, error) {
	follow, err := compilePatterns("follow", cfg.Follow)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns("exclude", cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &LinkExtractor{
		fetcher:  fetcher,
		sameHost: cfg.SameHost,
		follow:   follow,
		exclude:  exclude,
		log:      logger.Get("web"),
	}, nil
}

func compilePatterns(field string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.InvalidInput(field, fmt.Sprintf("bad pattern %q: %v", p, err))
		}
		out = append(out, re)
	}
	return out, nil
}

// Process fetches page and yields its links.
func (e *LinkExtractor) Process(ctx context.Context, page Page) (pipeline.Iterator[Link], error) {
	content, ok := e.fetcher.FetchContent(ctx, page.URL)
	if !ok {
		e.log.Debug("page unavailable", logger.Fields(logger.FieldURL, page.URL))
		return pipeline.Empty[Link](), nil
	}
	base := content.FinalURL
	if base == "" {
		base = page.URL
	}
	urls, err := ExtractLinks(content.Body, base)
	if err != nil {
		return nil, err
	}

	baseURL, _ := url.Parse(base)
	links := make([]Link, 0, len(urls))
	for _, u := range urls {
		if !e.keep(u, baseURL) {
			continue
		}
		links = append(links, Link{URL: u, Source: page.Source, FoundOn: page.URL})
	}
	return pipeline.Of(links...), nil
}

func (e *LinkExtractor) keep(link string, base *url.URL) bool {
	if e.sameHost && base != nil {
		u, err := url.Parse(link)
		if err != nil || !strings.EqualFold(u.Hostname(), base.Hostname()) {
			return false
		}
	}
	for _, re := range e.exclude {
		if re.MatchString(link) {
			return false
		}
	}
	if len(e.follow) == 0 {
		return true
	}
	for _, re := range e.follow {
		if re.MatchString(link) {
			return true
		}
	}
	return false
}

// ExtractLinks returns the distinct absolute http(s) links of an HTML
// document, resolved against pageURL, without fragments.
func ExtractLinks(html, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.InvalidInput("url", err.Error())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if skipHref(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		u.Fragment = ""
		u.RawFragment = ""
		link := u.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

func skipHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"mailto:", "javascript:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
