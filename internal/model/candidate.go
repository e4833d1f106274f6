package model

import (
	"mime"
	"strings"
)

// DocType identifies the format of a stored document.
type DocType string

// Document types recognized by the store.
const (
	DocTypeHTML DocType = "HTML"
	DocTypePDF  DocType = "PDF"
	DocTypeDOCX DocType = "DOCX"
)

// Candidate hints emitted by the dispatcher. A DOCUMENT hint means the URL
// looked like a binary document (by MIME type or extension); an HTML_PAGE
// hint means a page whose own text scored as relevant.
const (
	HintDocument = "DOCUMENT"
	HintHTMLPage = "HTML_PAGE"
)

// CandidateDoc is one document candidate discovered during a crawl.
// The dispatcher deduplicates candidates by URL within a jurisdiction run.
type CandidateDoc struct {
	// URL is the absolute URL of the candidate.
	URL string

	// Title is the anchor text the candidate was discovered under.
	// Empty for candidates found via content type rather than links.
	Title string

	// HighRelevance marks candidates whose signal passed the crawl-relevance
	// threshold; used downstream to prioritize classification.
	HighRelevance bool

	// DocTypeHint is HintDocument or HintHTMLPage.
	DocTypeHint string
}

// CrawlResult is the outcome of one jurisdiction's traversal.
type CrawlResult struct {
	// PagesFetched counts HTML pages fetched with a 200 status.
	PagesFetched int

	// DocsFound lists document candidates in discovery order.
	DocsFound []CandidateDoc

	// HTTPErrors counts non-200 responses and fatal fetch failures.
	HTTPErrors int

	// Timeouts counts fetches that exhausted retries on connection errors.
	Timeouts int

	// Notes records traversal observations such as "requires_js_rendering".
	Notes []string
}

// DocTypeForURL infers the document type and blob file extension from a URL
// and the response Content-Type. Unknown combinations fall back to HTML,
// mirroring how pages become candidates through their own text.
func DocTypeForURL(rawURL, contentType string) (DocType, string) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	mediaType = strings.ToLower(mediaType)

	path := strings.ToLower(rawURL)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasSuffix(path, ".pdf") || strings.Contains(mediaType, "pdf"):
		return DocTypePDF, "pdf"
	case strings.HasSuffix(path, ".docx") || strings.HasSuffix(path, ".doc") ||
		strings.Contains(mediaType, "msword") || strings.Contains(mediaType, "wordprocessingml"):
		return DocTypeDOCX, "docx"
	default:
		return DocTypeHTML, "html"
	}
}

// IsDocumentURL reports whether a URL points at a downloadable document by
// extension alone. Query strings are ignored.
func IsDocumentURL(rawURL string) bool {
	path := strings.ToLower(rawURL)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(path, ".pdf") ||
		strings.HasSuffix(path, ".docx") ||
		strings.HasSuffix(path, ".doc")
}
