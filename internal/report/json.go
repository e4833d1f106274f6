package report

import (
	"encoding/json"
	"io"

	"github.com/civimon/civimon/internal/model"
)

// JSONWriter outputs run exports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// coverageExport is the JSON payload for the coverage report.
type coverageExport struct {
	RunID       int64               `json:"run_id"`
	GeneratedAt string              `json:"generated_at"`
	Coverage    []model.CoverageRow `json:"coverage"`
}

// findingsExport is the JSON payload for the findings report.
type findingsExport struct {
	RunID       int64           `json:"run_id"`
	GeneratedAt string          `json:"generated_at"`
	Findings    []model.Finding `json:"findings"`
}

// WriteCoverage outputs the coverage rows in JSON format.
func (w *JSONWriter) WriteCoverage(export *RunExport) (int, error) {
	return w.writeJSON(coverageExport{
		RunID:       export.RunID,
		GeneratedAt: export.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Coverage:    export.Coverage,
	})
}

// WriteFindings outputs the findings in JSON format.
func (w *JSONWriter) WriteFindings(export *RunExport) (int, error) {
	return w.writeJSON(findingsExport{
		RunID:       export.RunID,
		GeneratedAt: export.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Findings:    export.Findings,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
