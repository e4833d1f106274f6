package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Jurisdiction is one municipality, county, or other public entity being
// monitored. Identity is the ID field, which stays stable across runs.
type Jurisdiction struct {
	// ID is the stable identifier. If the input row does not carry one,
	// DeriveJurisdictionID computes it deterministically.
	ID string

	// Name is the human-readable name, e.g. "Oslo kommune".
	Name string

	// Type classifies the entity, e.g. "kommune" or "fylkeskommune".
	Type string

	// Website is the canonical origin for the jurisdiction's site,
	// normalized to "https://{host}" with no path.
	Website string
}

// InvalidJurisdiction is an input row that failed validation during
// ingestion. It is carried through the run so that a FAIL coverage row can
// be written for it.
type InvalidJurisdiction struct {
	ID      string
	Name    string
	Type    string
	Website string

	// Reason describes why the row was rejected, e.g. the URL error.
	Reason string
}

// DeriveJurisdictionID computes a deterministic identifier from the row's
// name, type, and raw website string. The same input always yields the same
// id, so repeated ingestions of the same list do not create new identities.
//
// The id is the first 12 hex characters of the SHA-256 digest, which is the
// same hash primitive used for content addressing elsewhere in the system.
func DeriveJurisdictionID(name, jurisdictionType, website string) string {
	key := strings.ToLower(fmt.Sprintf("%s|%s|%s", name, jurisdictionType, website))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}
