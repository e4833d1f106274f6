package model

// Coverage statuses for one jurisdiction in one run.
//
// OK: the crawl completed without errors or timeouts.
// WARN: errors or timeouts occurred but the crawl still produced results.
// FAIL: the crawl could not run at all (invalid input or an unhandled
// failure) or produced nothing.
const (
	CoverageOK   = "OK"
	CoverageWARN = "WARN"
	CoverageFAIL = "FAIL"
)

// CoverageRow summarizes crawl outcome quality for one jurisdiction in one
// run. Exactly one row is written per (run, jurisdiction), after that
// jurisdiction's crawl completes or fails.
type CoverageRow struct {
	RunID          int64  `json:"run_id"`
	JurisdictionID string `json:"jurisdiction_id"`
	Name           string `json:"name"`
	Website        string `json:"website"`
	Status         string `json:"status"`
	HTTPErrors     int    `json:"http_errors"`
	Timeouts       int    `json:"timeouts"`
	PagesFetched   int    `json:"pages_fetched"`
	DocsFound      int    `json:"docs_found"`
	DocsDownloaded int    `json:"docs_downloaded"`
	ErrorMessage   string `json:"error,omitempty"`

	// Notes is a semicolon-joined, sorted, deduplicated set of traversal
	// notes (e.g. "requires_js_rendering").
	Notes string `json:"notes,omitempty"`
}

// Finding is one classified document, as exported in the findings report.
type Finding struct {
	Jurisdiction string  `json:"jurisdiction"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	DocType      DocType `json:"doc_type"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	Summary      string  `json:"summary"`

	// MentionsPlatform surfaces the classifier's platform-mention flag.
	MentionsPlatform bool `json:"mentions_platform_ks_fn"`
}
