package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/civimon/civimon/internal/report"
	"github.com/civimon/civimon/internal/store"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export coverage and findings reports for a crawl run",
		Long: `Report exports two documents for a crawl run: the coverage report
(one row per jurisdiction with its OK/WARN/FAIL status and crawl counters)
and the findings report (classified documents).

Files are named after the run, e.g. coverage_run_3.csv and
findings_run_3.md.

Examples:
  # Export the latest run as CSV and Markdown
  civimon report

  # Export a specific run as JSON only
  civimon report --run 3 --format json

  # Write reports into a directory
  civimon report --output ./reports`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().Int64("run", 0, "Run id to export (default: latest run)")
	cmd.Flags().StringP("output", "o", ".", "Directory for the report files")
	cmd.Flags().StringP("format", "f", "all",
		"Report format: csv, markdown, json, or all (csv + markdown)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "all" && format != "csv" && format != "markdown" && format != "json" {
		return fmt.Errorf("unknown format %q (want csv, markdown, json, or all)", format)
	}

	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	dataDir, err := getDataDir(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(dataDir, store.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	if runID == 0 {
		runID, err = st.LatestRun(ctx)
		if err != nil {
			return err
		}
		if runID == 0 {
			return errors.New("no crawl runs recorded yet (run 'civimon crawl' first)")
		}
	}

	coverage, err := st.CoverageRows(ctx, runID)
	if err != nil {
		return err
	}
	findings, err := st.FindingsRows(ctx)
	if err != nil {
		return err
	}

	export := &report.RunExport{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Coverage:    coverage,
		Findings:    findings,
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := writeReports(outputDir, format, export)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}
	return nil
}

// reportFormats maps a format name to its writer constructor and file
// extension.
var reportFormats = []struct {
	name  string
	ext   string
	build func(w io.Writer) report.Writer
}{
	{"csv", "csv", func(w io.Writer) report.Writer { return report.NewCSVWriter(w) }},
	{"markdown", "md", func(w io.Writer) report.Writer { return report.NewMarkdownWriter(w) }},
	{"json", "json", func(w io.Writer) report.Writer { return report.NewJSONWriter(w, report.WithPrettyPrint()) }},
}

// writeReports writes the coverage and findings files for the selected
// format and returns the paths written.
func writeReports(dir, format string, export *report.RunExport) ([]string, error) {
	var written []string

	for _, f := range reportFormats {
		if format != "all" && format != f.name {
			continue
		}
		if format == "all" && f.name == "json" {
			continue
		}

		coveragePath := filepath.Join(dir, fmt.Sprintf("coverage_run_%d.%s", export.RunID, f.ext))
		if err := writeReportFile(coveragePath, func(w io.Writer) error {
			_, err := f.build(w).WriteCoverage(export)
			return err
		}); err != nil {
			return written, err
		}
		written = append(written, coveragePath)

		findingsPath := filepath.Join(dir, fmt.Sprintf("findings_run_%d.%s", export.RunID, f.ext))
		if err := writeReportFile(findingsPath, func(w io.Writer) error {
			_, err := f.build(w).WriteFindings(export)
			return err
		}); err != nil {
			return written, err
		}
		written = append(written, findingsPath)
	}

	return written, nil
}

// writeReportFile creates the file and hands it to the write function.
func writeReportFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Report path comes from user flags
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
