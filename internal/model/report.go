package model

import "time"

// JurisdictionReport accumulates everything one jurisdiction produces as it
// moves through the run pipeline: the crawl result, the downloaded document
// versions, classification findings, and finally the coverage row.
//
// Design decision: pipeline steps communicate exclusively through this
// struct, the same way the scan steps share a single report object. That
// keeps each step independently testable and makes the data flow explicit.
type JurisdictionReport struct {
	// Jurisdiction is the entity this report covers.
	Jurisdiction Jurisdiction

	// RunID identifies the crawl run this report belongs to.
	RunID int64

	// StartedAt is when the jurisdiction's pipeline began.
	StartedAt time.Time

	// Crawl is the dispatcher's output. Nil until the crawl step has run,
	// or forever if the crawl step failed.
	Crawl *CrawlResult

	// Downloads lists document versions committed to the store, in the
	// order the candidates were processed.
	Downloads []DownloadedVersion

	// Findings lists classified documents for the findings report.
	Findings []Finding

	// Err is the first fatal error encountered by a pipeline step.
	// Non-fatal per-document failures are logged and skipped instead.
	Err error

	// ErrorMessage mirrors Err for serialization.
	ErrorMessage string
}

// DownloadedVersion describes one document version committed by the
// download step, with the extracted text the classify step needs.
type DownloadedVersion struct {
	VersionID  int64
	DocumentID int64
	URL        string
	Title      string
	DocType    DocType

	// Changed is true when the content hash differed from the most recent
	// stored version, i.e. the document is new or modified.
	Changed bool

	// HighRelevance carries the candidate's classification-eligibility flag
	// through to the classify step.
	HighRelevance bool

	// Text is the extracted plain text; empty for binary formats awaiting
	// the extraction collaborator.
	Text string

	// NeedsOCR marks versions whose extracted text was too thin to trust.
	NeedsOCR bool
}

// DocsDownloaded returns the number of committed document versions.
func (r *JurisdictionReport) DocsDownloaded() int {
	return len(r.Downloads)
}

// CoverageStatus derives the per-run status for this jurisdiction following
// the taxonomy: FAIL when the crawl never produced a result, WARN when it
// ran but hit errors or timeouts, OK otherwise.
func (r *JurisdictionReport) CoverageStatus() string {
	if r.Err != nil || r.Crawl == nil {
		return CoverageFAIL
	}
	if r.Crawl.HTTPErrors > 0 || r.Crawl.Timeouts > 0 {
		return CoverageWARN
	}
	return CoverageOK
}
