package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civimon/civimon/internal/model"
	"github.com/civimon/civimon/internal/store"
)

// seedRun creates a store with one finished run and two coverage rows,
// then closes it so the command under test can open the database.
func seedRun(t *testing.T) (dataDir string, runID int64) {
	t.Helper()
	dataDir = t.TempDir()

	st, err := store.Open(dataDir, store.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	ctx := context.Background()
	jurisdictions := []model.Jurisdiction{
		{ID: "j-asker", Name: "Asker kommune", Type: "kommune", Website: "https://www.asker.kommune.no"},
		{ID: "j-bergen", Name: "Bergen kommune", Type: "kommune", Website: "https://www.bergen.kommune.no"},
	}
	for _, j := range jurisdictions {
		if err := st.UpsertJurisdiction(ctx, j); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	runID, err = st.CreateRun(ctx)
	if err != nil {
		t.Fatalf("create run failed: %v", err)
	}
	rows := []model.CoverageRow{
		{RunID: runID, JurisdictionID: "j-asker", Status: model.CoverageOK, PagesFetched: 10, DocsFound: 3, DocsDownloaded: 3},
		{RunID: runID, JurisdictionID: "j-bergen", Status: model.CoverageWARN, PagesFetched: 4, HTTPErrors: 2},
	}
	for _, row := range rows {
		if err := st.InsertCoverage(ctx, row); err != nil {
			t.Fatalf("insert coverage failed: %v", err)
		}
	}
	if err := st.FinishRun(ctx, runID); err != nil {
		t.Fatalf("finish run failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return dataDir, runID
}

// TestReportCommand tests report file generation.
func TestReportCommand(t *testing.T) {
	t.Parallel()

	t.Run("default writes csv and markdown for the latest run", func(t *testing.T) {
		t.Parallel()

		dataDir, runID := seedRun(t)
		outDir := t.TempDir()

		out, err := runCommand(t, "report", "--data-dir", dataDir, "--output", outDir)
		if err != nil {
			t.Fatalf("report failed: %v\n%s", err, out)
		}

		for _, name := range []string{
			fmt.Sprintf("coverage_run_%d.csv", runID),
			fmt.Sprintf("coverage_run_%d.md", runID),
			fmt.Sprintf("findings_run_%d.csv", runID),
			fmt.Sprintf("findings_run_%d.md", runID),
		} {
			path := filepath.Join(outDir, name)
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing report file %s: %v", name, err)
			}
			if !strings.Contains(out, name) {
				t.Errorf("output does not mention %s", name)
			}
		}

		data, err := os.ReadFile(filepath.Join(outDir, fmt.Sprintf("coverage_run_%d.csv", runID)))
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if !strings.Contains(string(data), "Asker kommune") {
			t.Errorf("coverage csv missing jurisdiction: %s", data)
		}
	})

	t.Run("json format writes json files only", func(t *testing.T) {
		t.Parallel()

		dataDir, runID := seedRun(t)
		outDir := t.TempDir()

		if _, err := runCommand(t, "report", "--data-dir", dataDir, "--output", outDir, "--format", "json"); err != nil {
			t.Fatalf("report failed: %v", err)
		}

		entries, err := os.ReadDir(outDir)
		if err != nil {
			t.Fatalf("readdir failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 files, got %d", len(entries))
		}
		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), fmt.Sprintf("run_%d.json", runID)) {
				t.Errorf("unexpected file %s", e.Name())
			}
		}
	})

	t.Run("explicit run id", func(t *testing.T) {
		t.Parallel()

		dataDir, runID := seedRun(t)
		outDir := t.TempDir()

		if _, err := runCommand(t, "report",
			"--data-dir", dataDir, "--output", outDir,
			"--run", fmt.Sprintf("%d", runID), "--format", "csv"); err != nil {
			t.Fatalf("report failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(outDir, fmt.Sprintf("coverage_run_%d.csv", runID))); err != nil {
			t.Errorf("coverage csv missing: %v", err)
		}
	})

	t.Run("unknown format fails", func(t *testing.T) {
		t.Parallel()

		dataDir, _ := seedRun(t)
		if _, err := runCommand(t, "report", "--data-dir", dataDir, "--format", "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("fails without any runs", func(t *testing.T) {
		t.Parallel()

		dataDir := t.TempDir()
		st, err := store.Open(dataDir, store.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		st.Close()

		if _, err := runCommand(t, "report", "--data-dir", dataDir); err == nil {
			t.Error("expected error when no runs exist")
		}
	})

	t.Run("fails without a database", func(t *testing.T) {
		t.Parallel()

		if _, err := runCommand(t, "report", "--data-dir", t.TempDir()); err == nil {
			t.Error("expected error for a missing database")
		}
	})
}
