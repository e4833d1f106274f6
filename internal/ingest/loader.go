package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/civimon/civimon/internal/model"
)

// ErrMissingColumns is returned when the CSV header lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// requiredColumns are the header names the jurisdiction list must carry.
var requiredColumns = []string{"name", "type", "website"}

// LoadJurisdictions reads the jurisdiction list from a CSV file.
// Valid rows get a normalized website origin and a stable id (from the
// jurisdiction_id column when present, derived deterministically otherwise).
// Rows with an unusable website come back in the second slice with the
// validation error attached.
func LoadJurisdictions(path string) ([]model.Jurisdiction, []model.InvalidJurisdiction, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open jurisdiction list: %w", err)
	}
	defer f.Close()

	return ParseJurisdictions(f)
}

// ParseJurisdictions parses CSV jurisdiction rows from r.
func ParseJurisdictions(r io.Reader) ([]model.Jurisdiction, []model.InvalidJurisdiction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var valid []model.Jurisdiction
	var invalid []model.InvalidJurisdiction

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := field("name")
		jType := field("type")
		websiteRaw := field("website")

		id := field("jurisdiction_id")
		if id == "" {
			id = model.DeriveJurisdictionID(name, jType, websiteRaw)
		}

		website, err := NormalizeWebsiteURL(websiteRaw)
		if err != nil {
			invalid = append(invalid, model.InvalidJurisdiction{
				ID:      id,
				Name:    name,
				Type:    jType,
				Website: websiteRaw,
				Reason:  err.Error(),
			})
			continue
		}

		valid = append(valid, model.Jurisdiction{
			ID:      id,
			Name:    name,
			Type:    jType,
			Website: website,
		})
	}

	return valid, invalid, nil
}
