package web

import (
	"context"
	stderrors "errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

var errUnavailable = stderrors.New("content unavailable")

var (
	whitespace = regexp.MustCompile(`\s+`)
	blockOpen  = regexp.MustCompile(`(?i)<(div|p|br|li|td|tr|h[1-6])(\s[^>]*)?/?>`)
	blockClose = regexp.MustCompile(`(?i)</(div|p|li|td|tr|h[1-6])>`)
)

// ArticleExtractor is a Stage that fetches a Link and yields its readable
// article. Pages with too little text yield nothing. A page whose content
// could not be fetched is an error, so the link stays eligible for a later
// attempt.
type ArticleExtractor struct {
	fetcher fetch.Fetcher
	minText int
	log     *logger.Logger
}

var _ pipeline.Stage[Link, Article] = (*ArticleExtractor)(nil)

// NewArticleExtractor creates an ArticleExtractor.
func NewArticleExtractor(fetcher fetch.Fetcher, cfg Config) *ArticleExtractor {
	return &ArticleExtractor{fetcher: fetcher, minText: cfg.MinTextLength, log: logger.Get("web")}
}

// Process fetches link and extracts its article.
func (e *ArticleExtractor) Process(ctx context.Context, link Link) (pipeline.Iterator[Article], error) {
	content, ok := e.fetcher.FetchContent(ctx, link.URL)
	if !ok {
		return nil, e.unavailable(link)
	}
	pageURL := content.FinalURL
	if pageURL == "" {
		pageURL = link.URL
	}

	article, err := ExtractArticle(content.Body, pageURL)
	if err != nil {
		return nil, err
	}
	if len(article.Text) < e.minText {
		e.log.Debug("article too short", logger.Fields(logger.FieldURL, link.URL, "length", len(article.Text)))
		return pipeline.Empty[Article](), nil
	}
	article.URL = link.URL
	article.Source = link.Source
	article.FetchedAt = content.FetchedAt
	return pipeline.Single(article), nil
}

func (e *ArticleExtractor) unavailable(link Link) error {
	if r, ok := e.fetcher.(fetch.RateLimitReporter); ok && r.IsRateLimited() {
		resetAt, _ := r.RateLimitResetTime()
		return errors.RateLimited(resetAt).WithDetail("url", link.URL)
	}
	return errors.FetchError(link.URL, errUnavailable)
}

// ExtractArticle runs readability over html and returns the article with
// whitespace-normalized text.
func ExtractArticle(html, pageURL string) (Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, err
	}
	parsed, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return Article{}, err
	}
	text, err := plainText(parsed.Content)
	if err != nil {
		return Article{}, err
	}
	return Article{
		URL:           pageURL,
		NormalizedURL: dedup.NormalizeURL(pageURL),
		Title:         strings.TrimSpace(parsed.Title),
		Text:          text,
		HTML:          parsed.Content,
		Excerpt:       strings.TrimSpace(parsed.Excerpt),
		ContentHash:   dedup.ContentKey(text),
		ContentLength: len(text),
	}, nil
}

// plainText returns the text of an HTML fragment with block elements
// separated by spaces.
func plainText(html string) (string, error) {
	spaced := blockOpen.ReplaceAllString(html, " $0")
	spaced = blockClose.ReplaceAllString(spaced, "$0 ")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " ")), nil
}
