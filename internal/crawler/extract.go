package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// jsTextThreshold and jsScriptThreshold drive the script-driven-page
// heuristic: a page with almost no visible text but many script tags is
// probably assembled client-side.
const (
	jsTextThreshold   = 200
	jsScriptThreshold = 5
)

// Link is one anchor extracted from a page: the absolute target URL and the
// whitespace-collapsed anchor text.
type Link struct {
	URL  string
	Text string
}

// PageInfo is everything the dispatcher needs from one parsed HTML page.
//
// Design decision: a single parsing pass fills one result struct rather
// than exposing separate extraction methods. The dispatcher always needs
// the links, the title, and the visible text together, and walking the tree
// once keeps parse cost proportional to page size.
type PageInfo struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links are the anchors with non-empty, non-fragment hrefs, resolved
	// to absolute form against the page URL.
	Links []Link

	// Text is the visible text of the page with script, style, and
	// noscript content stripped and whitespace collapsed.
	Text string

	// ScriptCount is the number of <script> elements seen.
	ScriptCount int
}

// LooksJSDriven reports whether the page is likely rendered client-side:
// under ~200 characters of visible text but more than 5 script tags.
func (p *PageInfo) LooksJSDriven() bool {
	return len(p.Text) < jsTextThreshold && p.ScriptCount > jsScriptThreshold
}

// ParsePage parses HTML content fetched from pageURL and extracts the
// title, links, and visible text in one pass. x/net/html tolerates the
// malformed markup municipal sites routinely serve; a hard parse failure
// returns an error and the caller treats the page as link-free.
func ParsePage(pageURL, content string) (*PageInfo, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	info := &PageInfo{}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				if n.Data == "script" {
					info.ScriptCount++
				}
				return
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					info.Title = collapseSpace(n.FirstChild.Data)
				}
			case "a":
				if link, ok := extractAnchor(base, n); ok {
					info.Links = append(info.Links, link)
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	info.Text = collapseSpace(text.String())
	return info, nil
}

// ExtractLinks parses content and returns its anchors resolved against
// pageURL.
func ExtractLinks(pageURL, content string) ([]Link, error) {
	info, err := ParsePage(pageURL, content)
	if err != nil {
		return nil, err
	}
	return info.Links, nil
}

// extractAnchor turns one <a> element into a Link. Empty hrefs, bare
// fragments, and non-HTTP schemes are dropped.
func extractAnchor(base *url.URL, n *html.Node) (Link, bool) {
	href := strings.TrimSpace(getAttr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") {
		return Link{}, false
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return Link{}, false
	}

	u, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}
	resolved := base.ResolveReference(u)
	resolved.Fragment = ""

	return Link{
		URL:  resolved.String(),
		Text: collapseSpace(anchorText(n)),
	}, true
}

// anchorText concatenates all text nodes inside an anchor.
func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace trims and collapses runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
