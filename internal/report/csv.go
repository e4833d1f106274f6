package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/civimon/civimon/internal/model"
)

// Column orders for the CSV exports. The coverage layout matches the
// ingestion CSV conventions: snake_case headers, one row per jurisdiction.
var (
	coverageHeader = []string{
		"run_id", "jurisdiction_id", "name", "website", "status",
		"pages_fetched", "docs_found", "docs_downloaded",
		"http_errors", "timeouts", "notes", "error",
	}
	findingsHeader = []string{
		"jurisdiction", "type", "title", "url", "doc_type",
		"category", "confidence", "summary", "mentions_platform_ks_fn",
	}
)

// CSVWriter outputs run exports as RFC 4180 CSV.
// This format is designed for spreadsheets and downstream tooling.
//
// Design decision: We use standard encoding/csv rather than a third-party
// CSV library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It handles quoting and escaping correctly
// 3. It provides consistent behavior across Go versions
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// WriteCoverage outputs the coverage rows as CSV with a header row.
func (w *CSVWriter) WriteCoverage(export *RunExport) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := csv.NewWriter(cw)

	if err := enc.Write(coverageHeader); err != nil {
		return cw.n, err
	}
	for _, row := range export.Coverage {
		record := []string{
			strconv.FormatInt(row.RunID, 10),
			row.JurisdictionID,
			row.Name,
			row.Website,
			row.Status,
			strconv.Itoa(row.PagesFetched),
			strconv.Itoa(row.DocsFound),
			strconv.Itoa(row.DocsDownloaded),
			strconv.Itoa(row.HTTPErrors),
			strconv.Itoa(row.Timeouts),
			row.Notes,
			row.ErrorMessage,
		}
		if err := enc.Write(record); err != nil {
			return cw.n, err
		}
	}

	enc.Flush()
	return cw.n, enc.Error()
}

// WriteFindings outputs the findings as CSV with a header row.
func (w *CSVWriter) WriteFindings(export *RunExport) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := csv.NewWriter(cw)

	if err := enc.Write(findingsHeader); err != nil {
		return cw.n, err
	}
	for _, f := range export.Findings {
		record := []string{
			f.Jurisdiction,
			f.Type,
			f.Title,
			f.URL,
			string(f.DocType),
			f.Category,
			strconv.FormatFloat(f.Confidence, 'f', 2, 64),
			f.Summary,
			strconv.FormatBool(f.MentionsPlatform),
		}
		if err := enc.Write(record); err != nil {
			return cw.n, err
		}
	}

	enc.Flush()
	return cw.n, enc.Error()
}

// statusOrder gives FAIL rows the most visibility in sorted views.
func statusOrder(status string) int {
	switch status {
	case model.CoverageFAIL:
		return 0
	case model.CoverageWARN:
		return 1
	default:
		return 2
	}
}

// countingWriter tracks bytes written so the csv encoder can satisfy the
// Writer interface's byte count.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
