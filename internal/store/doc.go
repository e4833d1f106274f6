// Package store persists everything the monitor learns between runs.
//
// # Layout
//
// A single SQLite database (civimon.db) holds jurisdictions, crawl runs,
// per-run coverage rows, and the source → document → document_versions
// hierarchy. Downloaded bytes live beside it in a content-addressed blob
// tree keyed by jurisdiction and content hash.
//
// # Change detection
//
// UpsertVersion is the primitive every "new or modified document" report
// derives from. It compares the SHA-256 content hash against the most
// recent stored version of a document: the same hash only advances
// last_seen, a different hash appends a new version row. Content history is
// append-only, and the comparison runs inside a transaction so concurrent
// writers cannot duplicate a version.
package store
