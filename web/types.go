package web

import (
	"time"

	"github.com/kbukum/ingestkit/dedup"
)

// Page is a URL whose links should be followed.
type Page struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Location returns the page URL.
func (p Page) Location() string { return p.URL }

// Link is a URL found on a Page.
type Link struct {
	URL     string `json:"url"`
	Source  string `json:"source"`
	FoundOn string `json:"found_on"`
}

// Location returns the link URL.
func (l Link) Location() string { return l.URL }

// Article is the readable content extracted from a Link.
type Article struct {
	URL           string    `json:"url" bson:"url"`
	NormalizedURL string    `json:"normalized_url" bson:"normalized_url"`
	Source        string    `json:"source" bson:"source"`
	Title         string    `json:"title" bson:"title"`
	Text          string    `json:"text" bson:"content"`
	HTML          string    `json:"-" bson:"html_content"`
	Excerpt       string    `json:"excerpt,omitempty" bson:"excerpt,omitempty"`
	ContentHash   string    `json:"content_hash" bson:"content_hash"`
	ContentLength int       `json:"content_length" bson:"content_length"`
	FetchedAt     time.Time `json:"fetched_at" bson:"last_scraped"`
}

// Located is anything with a URL.
type Located interface {
	Location() string
}

// PageKey is the dedup key of a Page.
func PageKey(p Page) string { return dedup.NormalizeURL(p.URL) }

// LinkKey is the dedup key of a Link.
func LinkKey(l Link) string { return dedup.NormalizeURL(l.URL) }

// ArticleKey is the dedup key of an Article: its content hash, so the same
// text served under different URLs is kept once.
func ArticleKey(a Article) string { return a.ContentHash }
