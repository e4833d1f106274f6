// Package ingest loads the jurisdiction list and canonicalizes website URLs.
//
// The input is a CSV file with a header row containing at least the columns
// "name", "type", and "website"; an optional "jurisdiction_id" column pins
// identities explicitly. Rows with an unusable website are not dropped:
// they are returned separately so the run can record a FAIL coverage row
// for them.
package ingest
