package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/civimon/civimon/internal/config"
	"github.com/civimon/civimon/internal/fetch"
	"github.com/civimon/civimon/internal/model"
	"github.com/civimon/civimon/internal/sitemap"
)

// signalTextLimit caps how much leading page text joins the URL in the
// relevance signal for a page's self-candidacy.
const signalTextLimit = 1000

// Renderer produces a rendered DOM for pages that assemble their content
// client-side. internal/render provides the headless-browser
// implementation; tests stub it.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Dispatcher runs the bounded breadth-first traversal of one jurisdiction
// site: sitemap and heuristic-path seeds, same-origin link following gated
// by the relevance heuristic, and document-candidate collection.
//
// All traversal state (queue, seen set, candidate set) is local to a single
// Crawl call, so one Dispatcher can serve concurrent crawls of different
// jurisdictions; the shared rate limiter inside the Fetcher is the only
// cross-crawl coordination point.
type Dispatcher struct {
	fetcher   *fetch.Fetcher
	resolver  *sitemap.Resolver
	heuristic *Heuristic
	renderer  Renderer

	maxDepth       int
	heuristicPaths []string
	userAgent      string
	logger         *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxDepth sets the traversal depth bound. Seeds are depth 0.
func WithMaxDepth(depth int) DispatcherOption {
	return func(d *Dispatcher) {
		if depth >= 0 {
			d.maxDepth = depth
		}
	}
}

// WithRenderer enables the rendered-DOM fallback for script-driven pages.
func WithRenderer(r Renderer) DispatcherOption {
	return func(d *Dispatcher) {
		d.renderer = r
	}
}

// WithHeuristicPaths replaces the default seed path suffixes.
func WithHeuristicPaths(paths []string) DispatcherOption {
	return func(d *Dispatcher) {
		d.heuristicPaths = paths
	}
}

// WithDispatcherUserAgent sets the agent name matched against robots.txt
// groups.
func WithDispatcherUserAgent(ua string) DispatcherOption {
	return func(d *Dispatcher) {
		d.userAgent = ua
	}
}

// WithDispatcherLogger sets the traversal logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher crawling through the given fetcher and
// sitemap resolver.
func NewDispatcher(fetcher *fetch.Fetcher, resolver *sitemap.Resolver, heuristic *Heuristic, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		fetcher:        fetcher,
		resolver:       resolver,
		heuristic:      heuristic,
		maxDepth:       config.DefaultCrawlDepth,
		heuristicPaths: config.DefaultHeuristicPaths(),
		userAgent:      config.AppName,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// queueItem is one pending URL with the depth it was first enqueued at.
type queueItem struct {
	url   string
	depth int
}

// crawlState is the per-Crawl traversal state.
type crawlState struct {
	origin *url.URL
	robots *robotstxt.RobotsData

	queue      []queueItem
	seen       map[string]bool
	candidates map[string]bool

	result *model.CrawlResult
}

// Crawl traverses the jurisdiction site rooted at origin and returns the
// document candidates and run counters. Individual fetch failures are
// counted, never fatal; the only errors returned are an invalid origin or
// context cancellation.
func (d *Dispatcher) Crawl(ctx context.Context, origin string) (*model.CrawlResult, error) {
	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
	}

	robots, err := d.resolver.FetchRobots(ctx, origin)
	if err != nil {
		return nil, err
	}

	st := &crawlState{
		origin:     base,
		robots:     robots,
		seen:       make(map[string]bool),
		candidates: make(map[string]bool),
		result:     &model.CrawlResult{},
	}

	d.seed(ctx, st, origin)

	for len(st.queue) > 0 {
		if ctx.Err() != nil {
			return st.result, ctx.Err()
		}

		item := st.queue[0]
		st.queue = st.queue[1:]

		key := normalizeURL(item.url)
		if st.seen[key] || item.depth > d.maxDepth {
			continue
		}
		st.seen[key] = true

		if !d.allowedByRobots(st.robots, item.url) {
			continue
		}

		if err := d.visit(ctx, st, item); err != nil {
			return st.result, err
		}
	}

	return st.result, nil
}

// seed enqueues sitemap URLs and heuristic paths at depth 0. Sitemap seeds
// are kept only when same-host and crawl-relevant; heuristic paths are
// enqueued unconditionally.
func (d *Dispatcher) seed(ctx context.Context, st *crawlState, origin string) {
	for _, seedURL := range d.resolver.Seeds(ctx, origin, st.robots) {
		if !d.sameOrigin(st.origin, seedURL) {
			continue
		}
		if !d.heuristic.CrawlRelevant(seedURL) {
			continue
		}
		st.queue = append(st.queue, queueItem{url: seedURL, depth: 0})
	}

	trimmed := strings.TrimRight(origin, "/")
	for _, path := range d.heuristicPaths {
		st.queue = append(st.queue, queueItem{url: trimmed + path, depth: 0})
	}
}

// visit fetches one queued URL and processes it as a document or a page.
// Only context errors propagate.
func (d *Dispatcher) visit(ctx context.Context, st *crawlState, item queueItem) error {
	resp, err := d.fetcher.Fetch(ctx, item.url)
	switch {
	case err == nil:
	case errors.Is(err, fetch.ErrTimeout):
		st.result.Timeouts++
		d.logger.Debug("fetch timed out", "url", item.url)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		st.result.HTTPErrors++
		d.logger.Debug("fetch failed", "url", item.url, "error", err)
		return nil
	}

	if !resp.OK() {
		st.result.HTTPErrors++
		d.logger.Debug("non-200 response", "url", item.url, "status", resp.StatusCode)
		return nil
	}

	docType, _ := model.DocTypeForURL(item.url, resp.Header("Content-Type"))
	if docType != model.DocTypeHTML {
		d.addCandidate(st, model.CandidateDoc{
			URL:           item.url,
			HighRelevance: d.heuristic.LLMCandidate(item.url),
			DocTypeHint:   model.HintDocument,
		})
		return nil
	}

	st.result.PagesFetched++
	d.processPage(ctx, st, item, resp.Text)
	return nil
}

// processPage extracts links from a fetched HTML page, applies the
// rendered-DOM fallback, records the page's self-candidacy, and enqueues
// relevant children.
func (d *Dispatcher) processPage(ctx context.Context, st *crawlState, item queueItem, content string) {
	info, err := ParsePage(item.url, content)
	if err != nil {
		d.logger.Debug("page parse failed", "url", item.url, "error", err)
		return
	}

	if len(info.Links) == 0 && d.renderer != nil && info.LooksJSDriven() {
		rendered, err := d.renderer.Render(ctx, item.url)
		if err != nil {
			st.result.Notes = append(st.result.Notes, "js_rendering_failed: "+item.url)
			d.logger.Debug("rendering failed", "url", item.url, "error", err)
		} else {
			st.result.Notes = append(st.result.Notes, "requires_js_rendering: "+item.url)
			if reparsed, err := ParsePage(item.url, rendered); err == nil {
				info = reparsed
			}
		}
	}

	// A relevant page is itself a document candidate, independently of
	// being traversed for links.
	signal := item.url + " " + leading(info.Text, signalTextLimit)
	if d.heuristic.CrawlRelevant(signal) {
		d.addCandidate(st, model.CandidateDoc{
			URL:           item.url,
			Title:         info.Title,
			HighRelevance: d.heuristic.LLMCandidate(signal),
			DocTypeHint:   model.HintHTMLPage,
		})
	}

	for _, link := range info.Links {
		if !d.sameOrigin(st.origin, link.URL) {
			continue
		}

		linkSignal := link.URL + " " + link.Text
		if model.IsDocumentURL(link.URL) {
			d.addCandidate(st, model.CandidateDoc{
				URL:           link.URL,
				Title:         link.Text,
				HighRelevance: d.heuristic.LLMCandidate(linkSignal),
				DocTypeHint:   model.HintDocument,
			})
			continue
		}

		if item.depth < d.maxDepth && d.heuristic.CrawlRelevant(linkSignal) && !st.seen[normalizeURL(link.URL)] {
			st.queue = append(st.queue, queueItem{url: link.URL, depth: item.depth + 1})
		}
	}
}

// addCandidate records a candidate once per distinct URL.
func (d *Dispatcher) addCandidate(st *crawlState, c model.CandidateDoc) {
	key := normalizeURL(c.URL)
	if st.candidates[key] {
		return
	}
	st.candidates[key] = true
	st.result.DocsFound = append(st.result.DocsFound, c)
}

// allowedByRobots checks the URL path against the Disallow rules for the
// configured agent. Absent robots data allows everything.
func (d *Dispatcher) allowedByRobots(robots *robotstxt.RobotsData, rawURL string) bool {
	if robots == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, d.userAgent)
}

// sameOrigin reports whether rawURL shares the origin host.
func (d *Dispatcher) sameOrigin(origin *url.URL, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, origin.Host)
}

// normalizeURL canonicalizes a URL for the seen and candidate sets:
// fragment dropped, scheme and host lowercased, empty path normalized
// to "/".
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// leading returns the first n bytes of s on a rune boundary.
func leading(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
