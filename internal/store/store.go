package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/civimon/civimon/internal/model"
)

// Store is the SQLite-backed version store: jurisdictions, crawl runs,
// coverage rows, and the source/document/version hierarchy that change
// detection hangs off.
//
// Design decision: one database file for all jurisdictions rather than a
// file per jurisdiction. Coverage and findings reports are cross-
// jurisdiction joins, and a single file keeps backup and inspection
// trivial.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store database under dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "civimon.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; serializing all access through a single
	// connection avoids SQLITE_BUSY under concurrent jurisdiction
	// pipelines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jurisdictions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		website TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS coverage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id),
		jurisdiction_id TEXT NOT NULL,
		status TEXT NOT NULL,
		http_errors INTEGER DEFAULT 0,
		timeouts INTEGER DEFAULT 0,
		pages_fetched INTEGER DEFAULT 0,
		docs_found INTEGER DEFAULT 0,
		docs_downloaded INTEGER DEFAULT 0,
		error_message TEXT,
		notes TEXT,
		UNIQUE(run_id, jurisdiction_id)
	);

	-- One row per discovered URL per jurisdiction.
	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		jurisdiction_id TEXT NOT NULL REFERENCES jurisdictions(id),
		url TEXT NOT NULL,
		title TEXT,
		UNIQUE(jurisdiction_id, url)
	);

	-- One document per source; doc_type fixed at creation.
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL UNIQUE REFERENCES sources(id),
		doc_type TEXT NOT NULL
	);

	-- Append-only content history. The most recent row per document holds
	-- the current hash; identical bytes only advance last_seen.
	CREATE TABLE IF NOT EXISTS document_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id INTEGER NOT NULL REFERENCES documents(id),
		content_hash TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		http_status INTEGER,
		content_type TEXT,
		etag TEXT,
		last_modified TEXT,
		blob_reference TEXT,
		extracted_text TEXT,
		needs_ocr INTEGER DEFAULT 0,
		high_relevance INTEGER DEFAULT 0,
		classification TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sources_jurisdiction ON sources(jurisdiction_id);
	CREATE INDEX IF NOT EXISTS idx_versions_document ON document_versions(document_id);
	CREATE INDEX IF NOT EXISTS idx_versions_hash ON document_versions(content_hash);
	CREATE INDEX IF NOT EXISTS idx_coverage_run ON coverage(run_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertJurisdiction inserts or updates a jurisdiction row by id.
func (s *Store) UpsertJurisdiction(ctx context.Context, j model.Jurisdiction) error {
	query := `
	INSERT INTO jurisdictions (id, name, type, website)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		type = excluded.type,
		website = excluded.website
	`
	if _, err := s.db.ExecContext(ctx, query, j.ID, j.Name, j.Type, j.Website); err != nil {
		return fmt.Errorf("failed to upsert jurisdiction %s: %w", j.ID, err)
	}
	return nil
}

// ListJurisdictions returns all jurisdictions ordered by name.
func (s *Store) ListJurisdictions(ctx context.Context) ([]model.Jurisdiction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, website FROM jurisdictions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	defer rows.Close()

	var result []model.Jurisdiction
	for rows.Next() {
		var j model.Jurisdiction
		if err := rows.Scan(&j.ID, &j.Name, &j.Type, &j.Website); err != nil {
			return nil, fmt.Errorf("failed to scan jurisdiction: %w", err)
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

// CreateRun starts a new crawl run and returns its id.
func (s *Store) CreateRun(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO crawl_runs DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stamps the run's finished_at.
func (s *Store) FinishRun(ctx context.Context, runID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE crawl_runs SET finished_at = CURRENT_TIMESTAMP WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// LatestRun returns the id of the most recent run, or 0 when none exist.
func (s *Store) LatestRun(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM crawl_runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return id, nil
}

// InsertCoverage writes the coverage row for one jurisdiction in one run.
// A second write for the same (run, jurisdiction) replaces the first.
func (s *Store) InsertCoverage(ctx context.Context, row model.CoverageRow) error {
	query := `
	INSERT INTO coverage (run_id, jurisdiction_id, status, http_errors, timeouts,
		pages_fetched, docs_found, docs_downloaded, error_message, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, jurisdiction_id) DO UPDATE SET
		status = excluded.status,
		http_errors = excluded.http_errors,
		timeouts = excluded.timeouts,
		pages_fetched = excluded.pages_fetched,
		docs_found = excluded.docs_found,
		docs_downloaded = excluded.docs_downloaded,
		error_message = excluded.error_message,
		notes = excluded.notes
	`
	_, err := s.db.ExecContext(ctx, query,
		row.RunID, row.JurisdictionID, row.Status, row.HTTPErrors, row.Timeouts,
		row.PagesFetched, row.DocsFound, row.DocsDownloaded, row.ErrorMessage, row.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert coverage for %s: %w", row.JurisdictionID, err)
	}
	return nil
}

// CoverageRows returns the coverage rows for a run, joined with
// jurisdiction names, ordered by name.
func (s *Store) CoverageRows(ctx context.Context, runID int64) ([]model.CoverageRow, error) {
	query := `
	SELECT c.run_id, c.jurisdiction_id, COALESCE(j.name, ''), COALESCE(j.website, ''),
		c.status, c.http_errors, c.timeouts, c.pages_fetched, c.docs_found,
		c.docs_downloaded, COALESCE(c.error_message, ''), COALESCE(c.notes, '')
	FROM coverage c
	LEFT JOIN jurisdictions j ON j.id = c.jurisdiction_id
	WHERE c.run_id = ?
	ORDER BY j.name
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage: %w", err)
	}
	defer rows.Close()

	var result []model.CoverageRow
	for rows.Next() {
		var r model.CoverageRow
		if err := rows.Scan(&r.RunID, &r.JurisdictionID, &r.Name, &r.Website,
			&r.Status, &r.HTTPErrors, &r.Timeouts, &r.PagesFetched, &r.DocsFound,
			&r.DocsDownloaded, &r.ErrorMessage, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan coverage row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetOrCreateSource returns the source id for (jurisdictionID, url),
// inserting it on first encounter. The title is recorded at creation and
// filled in later if the source was first seen without one.
func (s *Store) GetOrCreateSource(ctx context.Context, jurisdictionID, url, title string) (int64, error) {
	var id int64
	var storedTitle sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title FROM sources WHERE jurisdiction_id = ? AND url = ?`,
		jurisdictionID, url).Scan(&id, &storedTitle)
	switch {
	case err == nil:
		if !storedTitle.Valid || storedTitle.String == "" {
			if title != "" {
				_, _ = s.db.ExecContext(ctx, `UPDATE sources SET title = ? WHERE id = ?`, title, id)
			}
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("failed to look up source: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (jurisdiction_id, url, title) VALUES (?, ?, ?)
		 ON CONFLICT(jurisdiction_id, url) DO UPDATE SET title = COALESCE(NULLIF(sources.title, ''), excluded.title)`,
		jurisdictionID, url, title)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source: %w", err)
	}
	return result.LastInsertId()
}

// GetOrCreateDocument returns the document id for a source, inserting it on
// first encounter. The doc_type is fixed at creation.
func (s *Store) GetOrCreateDocument(ctx context.Context, sourceID int64, docType model.DocType) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE source_id = ?`, sourceID).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("failed to look up document: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (source_id, doc_type) VALUES (?, ?)`, sourceID, string(docType))
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	return result.LastInsertId()
}

// VersionMeta carries the observation metadata stored with a document
// version.
type VersionMeta struct {
	HTTPStatus    int
	ContentType   string
	ETag          string
	LastModified  string
	BlobReference string
	ExtractedText string
	NeedsOCR      bool
	HighRelevance bool
}

// UpsertVersion is the change-detection primitive. It compares contentHash
// against the document's most recent version: identical bytes only advance
// last_seen and return changed=false; a different hash appends a new
// version row with first_seen = last_seen = now and returns changed=true.
//
// The read-then-write runs in one transaction so concurrent writers cannot
// race a duplicate row in for the same document.
func (s *Store) UpsertVersion(ctx context.Context, documentID int64, contentHash string, meta VersionMeta) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var latestID int64
	var latestHash string
	err = tx.QueryRowContext(ctx,
		`SELECT id, content_hash FROM document_versions
		 WHERE document_id = ? ORDER BY id DESC LIMIT 1`, documentID).Scan(&latestID, &latestHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to read latest version: %w", err)
	}

	if err == nil && latestHash == contentHash {
		if _, err := tx.ExecContext(ctx,
			`UPDATE document_versions SET last_seen = CURRENT_TIMESTAMP WHERE id = ?`, latestID); err != nil {
			return 0, false, fmt.Errorf("failed to touch version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, fmt.Errorf("failed to commit: %w", err)
		}
		return latestID, false, nil
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO document_versions (document_id, content_hash, http_status, content_type,
			etag, last_modified, blob_reference, extracted_text, needs_ocr, high_relevance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		documentID, contentHash, meta.HTTPStatus, meta.ContentType,
		meta.ETag, meta.LastModified, meta.BlobReference, meta.ExtractedText,
		boolToInt(meta.NeedsOCR), boolToInt(meta.HighRelevance))
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert version: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit: %w", err)
	}
	return id, true, nil
}

// VersionCount returns the number of stored versions for a document.
func (s *Store) VersionCount(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_versions WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}
	return n, nil
}

// SetClassification stores the classifier's JSON payload on a version.
func (s *Store) SetClassification(ctx context.Context, versionID int64, c *model.Classification) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize classification: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE document_versions SET classification = ? WHERE id = ?`,
		string(payload), versionID); err != nil {
		return fmt.Errorf("failed to set classification: %w", err)
	}
	return nil
}

// PendingVersion is one document version awaiting classification, with the
// context the classifier prompt needs.
type PendingVersion struct {
	VersionID    int64
	Jurisdiction string
	URL          string
	Title        string
	DocType      model.DocType
	Text         string
}

// ListUnclassified returns high-relevance versions that carry extracted
// text but no classification yet, oldest first. limit <= 0 means no limit.
func (s *Store) ListUnclassified(ctx context.Context, limit int) ([]PendingVersion, error) {
	query := `
	SELECT v.id, COALESCE(j.name, ''), src.url, COALESCE(src.title, ''), d.doc_type, v.extracted_text
	FROM document_versions v
	JOIN documents d ON d.id = v.document_id
	JOIN sources src ON src.id = d.source_id
	LEFT JOIN jurisdictions j ON j.id = src.jurisdiction_id
	WHERE v.classification IS NULL
		AND v.high_relevance = 1
		AND v.extracted_text IS NOT NULL AND v.extracted_text != ''
	ORDER BY v.id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclassified versions: %w", err)
	}
	defer rows.Close()

	var result []PendingVersion
	for rows.Next() {
		var p PendingVersion
		var docType string
		if err := rows.Scan(&p.VersionID, &p.Jurisdiction, &p.URL, &p.Title, &docType, &p.Text); err != nil {
			return nil, fmt.Errorf("failed to scan pending version: %w", err)
		}
		p.DocType = model.DocType(docType)
		result = append(result, p)
	}
	return result, rows.Err()
}

// FindingsRows returns one row per classified document version for the
// findings report, newest first.
func (s *Store) FindingsRows(ctx context.Context) ([]model.Finding, error) {
	query := `
	SELECT COALESCE(j.name, ''), COALESCE(j.type, ''), COALESCE(src.title, ''),
		src.url, d.doc_type, v.classification
	FROM document_versions v
	JOIN documents d ON d.id = v.document_id
	JOIN sources src ON src.id = d.source_id
	LEFT JOIN jurisdictions j ON j.id = src.jurisdiction_id
	WHERE v.classification IS NOT NULL
	ORDER BY v.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var result []model.Finding
	for rows.Next() {
		var f model.Finding
		var docType, payload string
		if err := rows.Scan(&f.Jurisdiction, &f.Type, &f.Title, &f.URL, &docType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.DocType = model.DocType(docType)

		var c model.Classification
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			continue // skip malformed classification payloads
		}
		f.Category = c.Category
		f.Confidence = c.Confidence
		f.Summary = c.Summary
		f.MentionsPlatform = c.MentionsPlatformKSFN
		result = append(result, f)
	}
	return result, rows.Err()
}

// VersionTimes returns first_seen and last_seen for a version.
func (s *Store) VersionTimes(ctx context.Context, versionID int64) (time.Time, time.Time, error) {
	var first, last string
	err := s.db.QueryRowContext(ctx,
		`SELECT first_seen, last_seen FROM document_versions WHERE id = ?`, versionID).
		Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read version times: %w", err)
	}
	return parseTimestamp(first), parseTimestamp(last), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp string against the known SQLite
// formats, returning the zero time when none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
