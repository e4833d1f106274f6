package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/civimon/civimon/internal/ingest"
	"github.com/civimon/civimon/internal/store"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <csv-file>",
		Short: "Load jurisdictions from a CSV file into the database",
		Long: `Ingest reads a jurisdiction list from a CSV file and stores it.

The file must carry a header with name, type, and website columns. An
optional jurisdiction_id column supplies stable identifiers; rows without
one get a deterministic id derived from the other fields.

Examples:
  # Load the jurisdiction list
  civimon ingest kommuner.csv

  # Load into a custom data directory
  civimon ingest --data-dir ./data kommuner.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runIngestCmd,
	}
}

// runIngestCmd executes the ingest command.
func runIngestCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	valid, invalid, err := ingest.LoadJurisdictions(args[0])
	if err != nil {
		return err
	}

	dataDir, err := getDataDir(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(dataDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	for _, j := range valid {
		if err := st.UpsertJurisdiction(ctx, j); err != nil {
			return fmt.Errorf("failed to store %s: %w", j.Name, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingested %d jurisdiction(s)\n", len(valid))
	if len(invalid) > 0 {
		fmt.Fprintf(out, "Skipped %d invalid row(s):\n", len(invalid))
		for _, row := range invalid {
			fmt.Fprintf(out, "  %s (%s): %s\n", row.Name, row.Website, row.Reason)
		}
	}
	return nil
}
