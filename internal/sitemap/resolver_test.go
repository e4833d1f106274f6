package sitemap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/civimon/civimon/internal/fetch"
)

func noBackoff(int) time.Duration { return 0 }

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	f := fetch.NewFetcher(fetch.NewDomainRateLimiter(1000), fetch.WithRetries(1), fetch.WithBackoff(noBackoff))
	return NewResolver(f, nil)
}

// TestParseSitemapURLs tests namespaced and unnamespaced sitemap parsing.
func TestParseSitemapURLs(t *testing.T) {
	t.Parallel()

	t.Run("namespaced document in order", func(t *testing.T) {
		t.Parallel()

		data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.no/politikk</loc></url>
  <url><loc>https://example.no/frivillighet</loc></url>
</urlset>`)
		urls, err := ParseSitemapURLs(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		want := []string{"https://example.no/politikk", "https://example.no/frivillighet"}
		if len(urls) != len(want) {
			t.Fatalf("expected %d urls, got %d", len(want), len(urls))
		}
		for i, u := range want {
			if urls[i] != u {
				t.Errorf("urls[%d] = %q, want %q", i, urls[i], u)
			}
		}
	})

	t.Run("unnamespaced fallback", func(t *testing.T) {
		t.Parallel()

		data := []byte(`<urlset>
  <url><loc>https://example.no/tilskudd</loc></url>
</urlset>`)
		urls, err := ParseSitemapURLs(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(urls) != 1 || urls[0] != "https://example.no/tilskudd" {
			t.Errorf("unexpected urls: %v", urls)
		}
	})

	t.Run("malformed XML", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSitemapURLs([]byte("<urlset><url><loc>https://x"))
		if !errors.Is(err, ErrMalformedXML) {
			t.Errorf("expected ErrMalformedXML, got %v", err)
		}
	})

	t.Run("empty urlset", func(t *testing.T) {
		t.Parallel()

		urls, err := ParseSitemapURLs([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(urls) != 0 {
			t.Errorf("expected no urls, got %v", urls)
		}
	})
}

// TestDiscoverSitemaps tests directive extraction and the fallback path.
func TestDiscoverSitemaps(t *testing.T) {
	t.Parallel()

	t.Run("robots directives preserved in order", func(t *testing.T) {
		t.Parallel()

		data, err := robotstxt.FromBytes([]byte(`User-agent: *
Disallow: /intern/
Sitemap: https://example.no/sitemap-a.xml
sitemap: https://example.no/sitemap-b.xml
`))
		if err != nil {
			t.Fatalf("robots parse failed: %v", err)
		}
		urls := DiscoverSitemaps("https://example.no", data)
		if len(urls) != 2 {
			t.Fatalf("expected 2 sitemaps, got %v", urls)
		}
		if urls[0] != "https://example.no/sitemap-a.xml" || urls[1] != "https://example.no/sitemap-b.xml" {
			t.Errorf("order not preserved: %v", urls)
		}
	})

	t.Run("fallback when robots has no directives", func(t *testing.T) {
		t.Parallel()

		data, err := robotstxt.FromBytes([]byte("User-agent: *\nDisallow:\n"))
		if err != nil {
			t.Fatalf("robots parse failed: %v", err)
		}
		urls := DiscoverSitemaps("https://example.no/", data)
		if len(urls) != 1 || urls[0] != "https://example.no/sitemap.xml" {
			t.Errorf("unexpected fallback: %v", urls)
		}
	})

	t.Run("fallback when robots is nil", func(t *testing.T) {
		t.Parallel()

		urls := DiscoverSitemaps("https://example.no", nil)
		if len(urls) != 1 || urls[0] != "https://example.no/sitemap.xml" {
			t.Errorf("unexpected fallback: %v", urls)
		}
	})
}

// TestFetchRobots tests the soft-failure contract.
func TestFetchRobots(t *testing.T) {
	t.Parallel()

	t.Run("parses a served robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/robots.txt" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /intern/\nSitemap: https://example.no/sm.xml\n"))
		}))
		defer srv.Close()

		data, err := newTestResolver(t).FetchRobots(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if data == nil {
			t.Fatal("expected robots data")
		}
		if len(data.Sitemaps) != 1 {
			t.Errorf("expected 1 sitemap directive, got %v", data.Sitemaps)
		}
		if data.TestAgent("/intern/ansatte", "civimon") {
			t.Error("disallowed path should not be allowed")
		}
		if !data.TestAgent("/politikk", "civimon") {
			t.Error("allowed path should be allowed")
		}
	})

	t.Run("404 yields nil without error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		data, err := newTestResolver(t).FetchRobots(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("expected soft failure, got %v", err)
		}
		if data != nil {
			t.Error("expected nil robots data for 404")
		}
	})

	t.Run("unreachable host yields nil without error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		origin := srv.URL
		srv.Close()

		data, err := newTestResolver(t).FetchRobots(context.Background(), origin)
		if err != nil {
			t.Fatalf("expected soft failure, got %v", err)
		}
		if data != nil {
			t.Error("expected nil robots data for dead host")
		}
	})
}

// TestSeeds tests end-to-end seed collection over HTTP.
func TestSeeds(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.no/frivillighet</loc></url>
  <url><loc>https://example.no/politikk</loc></url>
</urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	seeds := newTestResolver(t).Seeds(context.Background(), srv.URL, nil)
	if len(seeds) != 2 {
		t.Fatalf("expected 2 seeds, got %v", seeds)
	}
	if seeds[0] != "https://example.no/frivillighet" {
		t.Errorf("order not preserved: %v", seeds)
	}
}
