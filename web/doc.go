// Package web holds reference adapters that turn web pages into articles:
// a seed Producer, a robots.txt filter, a link extractor and a readability
// based article extractor. Every network access goes through a
// fetch.Fetcher, so pacing, retries, rate limits and caching apply.
//
// A typical chain:
//
//	pages → RobotsFilter[Page] → LinkExtractor → RobotsFilter[Link]
//	      → dedup.Guard(LinkKey, ArticleExtractor) → dedup(ArticleKey)
//
// The guard marks a link as seen only after its article was extracted, so
// links whose fetch failed are tried again on the next run.
package web
