package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/civimon/civimon/internal/fetch"
)

// ErrMalformedXML is returned when sitemap bytes cannot be parsed as XML.
var ErrMalformedXML = errors.New("malformed sitemap XML")

// sitemapNS is the default namespace of sitemap documents.
const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Resolver discovers and parses sitemaps for a jurisdiction origin.
type Resolver struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewResolver creates a Resolver fetching through the given Fetcher.
func NewResolver(fetcher *fetch.Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// FetchRobots fetches and parses {origin}/robots.txt. A missing or
// unreachable robots.txt is not an error; it returns (nil, nil) and the
// caller proceeds without robots data.
func (r *Resolver) FetchRobots(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	resp, err := r.fetcher.Fetch(ctx, strings.TrimRight(origin, "/")+"/robots.txt")
	if err != nil {
		if errors.Is(err, fetch.ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		r.logger.Debug("robots.txt parse failed", "origin", origin, "error", err)
		return nil, nil
	}
	return data, nil
}

// DiscoverSitemaps returns the ordered list of candidate sitemap URLs for
// origin: every Sitemap directive from robots, in file order, or the
// conventional {origin}/sitemap.xml when robots declares none.
func DiscoverSitemaps(origin string, robots *robotstxt.RobotsData) []string {
	if robots != nil && len(robots.Sitemaps) > 0 {
		urls := make([]string, len(robots.Sitemaps))
		copy(urls, robots.Sitemaps)
		return urls
	}
	return []string{strings.TrimRight(origin, "/") + "/sitemap.xml"}
}

// urlset mirrors a sitemap document in the standard namespace.
type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 loc"`
	} `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 url"`
}

// plainURLSet matches <loc> entries regardless of namespace.
type plainURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ParseSitemapURLs extracts the <loc> URLs from sitemap XML in document
// order. It first parses against the sitemap namespace; if that yields no
// entries it retries treating the document as unnamespaced. Malformed XML
// returns an error wrapping ErrMalformedXML.
func ParseSitemapURLs(data []byte) ([]string, error) {
	var ns urlset
	if err := xml.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	if ns.XMLName.Space == sitemapNS && len(ns.URLs) > 0 {
		urls := make([]string, 0, len(ns.URLs))
		for _, u := range ns.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}

	var plain plainURLSet
	if err := xml.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	urls := make([]string, 0, len(plain.URLs))
	for _, u := range plain.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// Seeds fetches every discovered sitemap for origin and returns the
// concatenated URL lists in discovery order. Unreachable or malformed
// sitemaps contribute nothing; the crawl falls back to heuristic paths.
func (r *Resolver) Seeds(ctx context.Context, origin string, robots *robotstxt.RobotsData) []string {
	var seeds []string
	for _, smURL := range DiscoverSitemaps(origin, robots) {
		resp, err := r.fetcher.Fetch(ctx, smURL)
		if err != nil {
			r.logger.Debug("sitemap fetch failed", "url", smURL, "error", err)
			continue
		}
		if !resp.OK() {
			continue
		}
		urls, err := ParseSitemapURLs(resp.Body)
		if err != nil {
			r.logger.Debug("sitemap parse failed", "url", smURL, "error", err)
			continue
		}
		seeds = append(seeds, urls...)
	}
	return seeds
}
