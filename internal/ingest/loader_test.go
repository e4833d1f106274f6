package ingest

import (
	"errors"
	"strings"
	"testing"
)

// TestParseJurisdictions tests CSV parsing, id derivation, and invalid-row
// handling.
func TestParseJurisdictions(t *testing.T) {
	t.Parallel()

	t.Run("valid rows with and without explicit id", func(t *testing.T) {
		t.Parallel()

		csvData := `jurisdiction_id,name,type,website
k-0301,Oslo kommune,kommune,oslo.kommune.no
,Bergen kommune,kommune,https://www.bergen.kommune.no/innbyggerhjelpen
`
		valid, invalid, err := ParseJurisdictions(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(invalid) != 0 {
			t.Fatalf("expected no invalid rows, got %d", len(invalid))
		}
		if len(valid) != 2 {
			t.Fatalf("expected 2 valid rows, got %d", len(valid))
		}

		if valid[0].ID != "k-0301" {
			t.Errorf("explicit id not used: %q", valid[0].ID)
		}
		if valid[0].Website != "https://oslo.kommune.no" {
			t.Errorf("website not normalized: %q", valid[0].Website)
		}

		if valid[1].ID == "" || len(valid[1].ID) != 12 {
			t.Errorf("expected derived 12-char id, got %q", valid[1].ID)
		}
		if valid[1].Website != "https://www.bergen.kommune.no" {
			t.Errorf("path not discarded: %q", valid[1].Website)
		}
	})

	t.Run("invalid website lands in invalid slice", func(t *testing.T) {
		t.Parallel()

		csvData := `name,type,website
Utsira kommune,kommune,
Oslo kommune,kommune,oslo.kommune.no
`
		valid, invalid, err := ParseJurisdictions(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(valid) != 1 {
			t.Errorf("expected 1 valid row, got %d", len(valid))
		}
		if len(invalid) != 1 {
			t.Fatalf("expected 1 invalid row, got %d", len(invalid))
		}
		if invalid[0].Name != "Utsira kommune" {
			t.Errorf("wrong row marked invalid: %+v", invalid[0])
		}
		if invalid[0].Reason == "" {
			t.Error("invalid row should carry a reason")
		}
	})

	t.Run("missing required columns", func(t *testing.T) {
		t.Parallel()

		csvData := "name,homepage\nOslo,oslo.kommune.no\n"
		_, _, err := ParseJurisdictions(strings.NewReader(csvData))
		if !errors.Is(err, ErrMissingColumns) {
			t.Errorf("expected ErrMissingColumns, got %v", err)
		}
	})

	t.Run("id derivation is stable across loads", func(t *testing.T) {
		t.Parallel()

		csvData := "name,type,website\nOslo kommune,kommune,oslo.kommune.no\n"
		first, _, err := ParseJurisdictions(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		second, _, err := ParseJurisdictions(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if first[0].ID != second[0].ID {
			t.Errorf("derived id changed between loads: %q vs %q", first[0].ID, second[0].ID)
		}
	})
}
