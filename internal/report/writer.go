package report

import (
	"io"
	"time"

	"github.com/civimon/civimon/internal/model"
)

// RunExport bundles everything the writers need about one crawl run.
//
// Design decision: writers receive a prepared snapshot rather than a store
// handle. This keeps the package free of database concerns and lets tests
// construct exports directly.
type RunExport struct {
	// RunID identifies the crawl run being exported.
	RunID int64 `json:"run_id"`

	// GeneratedAt is when the export was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Coverage holds one row per jurisdiction, ordered by name.
	Coverage []model.CoverageRow `json:"coverage"`

	// Findings holds the classified documents of the run.
	Findings []model.Finding `json:"findings"`
}

// StatusCounts tallies coverage rows by status.
func (e *RunExport) StatusCounts() (ok, warn, fail int) {
	for _, row := range e.Coverage {
		switch row.Status {
		case model.CoverageOK:
			ok++
		case model.CoverageWARN:
			warn++
		case model.CoverageFAIL:
			fail++
		}
	}
	return ok, warn, fail
}

// Writer defines the interface for report output.
// Implementations write run exports in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// WriteCoverage outputs the coverage portion of the export.
	// Returns the number of bytes written and any error encountered.
	WriteCoverage(export *RunExport) (int, error)

	// WriteFindings outputs the findings portion of the export.
	WriteFindings(export *RunExport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write run exports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteCoverage outputs the coverage rows to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteCoverage(export *RunExport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCoverage(export)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteFindings outputs the findings to all configured Writers.
func (m *MultiWriter) WriteFindings(export *RunExport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteFindings(export)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
