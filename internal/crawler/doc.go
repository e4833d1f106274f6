// Package crawler discovers policy documents on jurisdiction websites.
//
// # Traversal
//
// The Dispatcher runs a bounded breadth-first crawl per jurisdiction:
// sitemap URLs and a fixed set of heuristic path suffixes seed the queue at
// depth 0, and same-origin links judged crawl-relevant are followed to a
// configurable depth (default 2). Every URL is visited at most once per
// crawl, at the depth it was first enqueued, so traversal is finite for any
// link graph. robots.txt Disallow rules for the configured agent are
// honored.
//
// # Classification
//
// Fetched resources split on Content-Type and URL extension: PDF and Word
// responses become document candidates immediately; HTML pages are parsed
// for links and may become candidates through their own text. Candidates
// are deduplicated by URL and carry a high-relevance flag that gates
// downstream text classification.
//
// # Relevance
//
// The Heuristic scores signals against four weighted keyword categories
// (theme, governance, collaboration, negative). Keyword sets, weights, and
// the two thresholds all come from configuration; the defaults target
// Norwegian municipal sites.
//
// Individual fetch failures never abort a crawl. Timeouts and HTTP errors
// are counted in the CrawlResult and traversal moves on.
package crawler
