// Package sitemap discovers crawl seeds from robots.txt and sitemap XML.
//
// Discovery follows the conventional chain: fetch {origin}/robots.txt, take
// every Sitemap directive in file order, and fall back to
// {origin}/sitemap.xml when robots declares none. Sitemap documents are
// parsed first in the standard sitemap namespace and then, if that yields
// nothing, as unnamespaced XML, since municipal sites are inconsistent
// about declaring it.
//
// Every failure mode here is soft. A missing robots.txt, an unreachable
// sitemap, or malformed XML contributes zero seeds and the crawl proceeds
// on heuristic paths alone.
package sitemap
