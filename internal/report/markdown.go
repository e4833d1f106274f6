package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/civimon/civimon/internal/model"
)

// MarkdownWriter outputs run exports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteCoverage outputs the coverage report in Markdown format.
func (w *MarkdownWriter) WriteCoverage(export *RunExport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeCoverageHeader(md, export)
	w.writeCoverageSummary(md, export)
	w.writeCoverageTable(md, export)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeCoverageHeader writes the report header with run information.
func (w *MarkdownWriter) writeCoverageHeader(md *markdown.Markdown, export *RunExport) {
	md.H1("Coverage Report - Run " + strconv.FormatInt(export.RunID, 10))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", strconv.FormatInt(export.RunID, 10)},
			{"Generated", export.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Jurisdictions", strconv.Itoa(len(export.Coverage))},
		},
	})
	md.PlainText("")
}

// writeCoverageSummary writes the status summary with a pie chart and an
// alert matching the worst status present.
func (w *MarkdownWriter) writeCoverageSummary(md *markdown.Markdown, export *RunExport) {
	ok, warn, fail := export.StatusCounts()

	md.H2("Status Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"✅ OK", strconv.Itoa(ok)},
			{"⚠️ WARN", strconv.Itoa(warn)},
			{"❌ FAIL", strconv.Itoa(fail)},
		},
	})
	md.PlainText("")

	if len(export.Coverage) > 0 {
		w.writeStatusChart(md, ok, warn, fail)
	}

	switch {
	case fail > 0:
		md.Cautionf("%d jurisdiction(s) failed completely and produced no results.", fail)
	case warn > 0:
		md.Warningf("%d jurisdiction(s) hit errors or timeouts; results are partial.", warn)
	default:
		md.Tip("All jurisdictions crawled cleanly.")
	}
	md.PlainText("")
}

// writeStatusChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writeStatusChart(md *markdown.Markdown, ok, warn, fail int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Coverage Status Distribution"),
		piechart.WithShowData(true),
	)

	if ok > 0 {
		chart.LabelAndIntValue("OK", uint64(ok))
	}
	if warn > 0 {
		chart.LabelAndIntValue("WARN", uint64(warn))
	}
	if fail > 0 {
		chart.LabelAndIntValue("FAIL", uint64(fail))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeCoverageTable writes the per-jurisdiction table, FAIL rows first.
func (w *MarkdownWriter) writeCoverageTable(md *markdown.Markdown, export *RunExport) {
	md.H2("Jurisdictions")
	md.PlainText("")

	if len(export.Coverage) == 0 {
		md.PlainText("No jurisdictions in this run.")
		md.PlainText("")
		return
	}

	rows := make([]model.CoverageRow, len(export.Coverage))
	copy(rows, export.Coverage)
	sort.SliceStable(rows, func(i, j int) bool {
		return statusOrder(rows[i].Status) < statusOrder(rows[j].Status)
	})

	table := make([][]string, len(rows))
	for i, row := range rows {
		detail := row.Notes
		if row.ErrorMessage != "" {
			detail = row.ErrorMessage
		}
		table[i] = []string{
			row.Name,
			row.Status,
			strconv.Itoa(row.PagesFetched),
			strconv.Itoa(row.DocsFound),
			strconv.Itoa(row.DocsDownloaded),
			strconv.Itoa(row.HTTPErrors),
			strconv.Itoa(row.Timeouts),
			truncateString(detail, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Jurisdiction", "Status", "Pages", "Docs Found", "Downloaded", "HTTP Errors", "Timeouts", "Detail"},
		Rows:   table,
	})
	md.PlainText("")
}

// WriteFindings outputs the findings report in Markdown format.
func (w *MarkdownWriter) WriteFindings(export *RunExport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Findings Report - Run " + strconv.FormatInt(export.RunID, 10))
	md.PlainText("")

	if len(export.Findings) == 0 {
		md.PlainText("No classified documents in this run.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	w.writeFindingsTable(md, export.Findings)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFindingsTable writes a table of findings with summary details,
// highest confidence first.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	rows := make([][]string, len(sorted))
	for i, f := range sorted {
		platform := "-"
		if f.MentionsPlatform {
			platform = "yes"
		}
		rows[i] = []string{
			f.Jurisdiction,
			truncateString(f.Title, 50),
			f.Category,
			strconv.FormatFloat(f.Confidence, 'f', 2, 64),
			platform,
			"[link](" + f.URL + ")",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Jurisdiction", "Title", "Category", "Confidence", "Platform Mention", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range sorted {
		if f.Summary != "" {
			md.Details(f.Jurisdiction+": "+f.Title, f.Summary)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by civimon*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
