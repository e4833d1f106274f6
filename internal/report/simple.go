package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/civimon/civimon/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no rows are shown.
	showEmpty bool

	// verbose enables per-jurisdiction notes in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with notes and error details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteCoverage outputs the coverage summary in human-readable format.
func (w *SimpleWriter) WriteCoverage(export *RunExport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, export)
	w.writeStatusSummary(&sb, export)
	w.writeJurisdictions(&sb, export)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, export *RunExport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CIVIMON RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run:           %d\n", export.RunID))
	sb.WriteString(fmt.Sprintf("Generated:     %s\n", export.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Jurisdictions: %d\n", len(export.Coverage)))
	sb.WriteString("\n")
}

// writeStatusSummary writes the status counts section.
func (w *SimpleWriter) writeStatusSummary(sb *strings.Builder, export *RunExport) {
	ok, warn, fail := export.StatusCounts()

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STATUS SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  OK:   %d\n", ok))
	sb.WriteString(fmt.Sprintf("  WARN: %d\n", warn))
	sb.WriteString(fmt.Sprintf("  FAIL: %d\n", fail))
	sb.WriteString("\n")
}

// writeJurisdictions writes one line per jurisdiction, worst status first.
func (w *SimpleWriter) writeJurisdictions(sb *strings.Builder, export *RunExport) {
	if len(export.Coverage) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("JURISDICTIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(export.Coverage) == 0 {
		sb.WriteString("  No jurisdictions in this run\n\n")
		return
	}

	for _, row := range export.Coverage {
		indicator := w.getStatusIndicator(row.Status)
		sb.WriteString(fmt.Sprintf("  [%s] %-30s pages=%d docs=%d downloaded=%d\n",
			indicator, row.Name, row.PagesFetched, row.DocsFound, row.DocsDownloaded))
		if w.verbose {
			if row.ErrorMessage != "" {
				sb.WriteString(fmt.Sprintf("      Error: %s\n", row.ErrorMessage))
			}
			if row.Notes != "" {
				sb.WriteString(fmt.Sprintf("      Notes: %s\n", row.Notes))
			}
		}
	}
	sb.WriteString("\n")
}

// getStatusIndicator returns a visual indicator for the coverage status.
func (w *SimpleWriter) getStatusIndicator(status string) string {
	switch status {
	case model.CoverageOK:
		return "+"
	case model.CoverageWARN:
		return "!"
	case model.CoverageFAIL:
		return "x"
	default:
		return "?"
	}
}

// WriteFindings outputs the findings in human-readable format.
func (w *SimpleWriter) WriteFindings(export *RunExport) (int, error) {
	var sb strings.Builder

	if len(export.Findings) == 0 && !w.showEmpty {
		return 0, nil
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(export.Findings) == 0 {
		sb.WriteString("  No classified documents\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, f := range export.Findings {
		sb.WriteString(fmt.Sprintf("  * %s: %s\n", f.Jurisdiction, f.Title))
		sb.WriteString(fmt.Sprintf("    Category: %s (confidence %.2f)\n", f.Category, f.Confidence))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", f.URL))
		if w.verbose && f.Summary != "" {
			sb.WriteString(fmt.Sprintf("    Summary: %s\n", f.Summary))
		}
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by civimon\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
