package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/civimon/civimon/internal/classify"
	"github.com/civimon/civimon/internal/config"
	"github.com/civimon/civimon/internal/crawler"
	"github.com/civimon/civimon/internal/fetch"
	"github.com/civimon/civimon/internal/model"
	"github.com/civimon/civimon/internal/store"
)

// Crawler runs one jurisdiction's traversal. crawler.Dispatcher is the
// production implementation.
type Crawler interface {
	Crawl(ctx context.Context, origin string) (*model.CrawlResult, error)
}

// Classifier classifies one document's text. classify.Client is the
// production implementation.
type Classifier interface {
	Classify(ctx context.Context, req classify.Request) (*model.Classification, error)
}

// CrawlStep runs the dispatcher and records the crawl result on the
// report. A crawl that cannot start at all is the jurisdiction's fatal
// error; counted fetch failures are not.
type CrawlStep struct {
	crawler Crawler
	logger  *slog.Logger
}

// NewCrawlStep creates the crawl step.
func NewCrawlStep(c Crawler, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{crawler: c, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string { return "crawl" }

// Do runs the traversal for the report's jurisdiction.
func (s *CrawlStep) Do(ctx context.Context, report *model.JurisdictionReport) error {
	result, err := s.crawler.Crawl(ctx, report.Jurisdiction.Website)
	if err != nil {
		return fmt.Errorf("crawl of %s failed: %w", report.Jurisdiction.Website, err)
	}
	report.Crawl = result
	s.logger.Info("crawl finished",
		"jurisdiction", report.Jurisdiction.Name,
		"pages", result.PagesFetched,
		"candidates", len(result.DocsFound),
		"http_errors", result.HTTPErrors,
		"timeouts", result.Timeouts,
	)
	return nil
}

// DownloadStep fetches each document candidate, hashes its content, writes
// the blob, and commits a version row through the store's change-detection
// upsert. A failure on one candidate is logged and skipped.
type DownloadStep struct {
	fetcher *fetch.Fetcher
	store   *store.Store
	blobs   *store.BlobStore

	// needsOCRThreshold marks extracted text shorter than this many
	// characters as needing OCR.
	needsOCRThreshold int
	logger            *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithNeedsOCRThreshold sets the thin-text threshold.
func WithNeedsOCRThreshold(n int) DownloadStepOption {
	return func(s *DownloadStep) {
		if n >= 0 {
			s.needsOCRThreshold = n
		}
	}
}

// WithDownloadLogger sets the step logger.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates the download step.
func NewDownloadStep(fetcher *fetch.Fetcher, st *store.Store, blobs *store.BlobStore, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		fetcher:           fetcher,
		store:             st,
		blobs:             blobs,
		needsOCRThreshold: config.DefaultNeedsOCRThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string { return "download" }

// Do downloads every candidate from the crawl result.
func (s *DownloadStep) Do(ctx context.Context, report *model.JurisdictionReport) error {
	if report.Err != nil || report.Crawl == nil {
		return nil
	}

	for _, candidate := range report.Crawl.DocsFound {
		version, err := s.downloadOne(ctx, report, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("skipping document",
				"jurisdiction", report.Jurisdiction.Name,
				"url", candidate.URL,
				"error", err,
			)
			continue
		}
		report.Downloads = append(report.Downloads, *version)
	}
	return nil
}

// downloadOne fetches, hashes, and commits a single candidate.
func (s *DownloadStep) downloadOne(ctx context.Context, report *model.JurisdictionReport, candidate model.CandidateDoc) (*model.DownloadedVersion, error) {
	resp, err := s.fetcher.Fetch(ctx, candidate.URL)
	if err != nil {
		if errors.Is(err, fetch.ErrTimeout) {
			report.Crawl.Timeouts++
		}
		return nil, err
	}
	if !resp.OK() {
		report.Crawl.HTTPErrors++
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	contentType := resp.Header("Content-Type")
	docType, ext := model.DocTypeForURL(candidate.URL, contentType)

	// HTML is hashed on its UTF-8 text so charset-only differences do not
	// register as content changes; binary formats hash the raw bytes.
	var content []byte
	var text string
	if docType == model.DocTypeHTML {
		content = []byte(resp.Text)
		if info, err := crawler.ParsePage(candidate.URL, resp.Text); err == nil {
			text = info.Text
		}
	} else {
		content = resp.Body
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	blobRef, err := s.blobs.Save(report.Jurisdiction.ID, hash, ext, content)
	if err != nil {
		return nil, err
	}

	sourceID, err := s.store.GetOrCreateSource(ctx, report.Jurisdiction.ID, candidate.URL, candidate.Title)
	if err != nil {
		return nil, err
	}
	documentID, err := s.store.GetOrCreateDocument(ctx, sourceID, docType)
	if err != nil {
		return nil, err
	}

	needsOCR := docType != model.DocTypeHTML && len(text) < s.needsOCRThreshold
	versionID, changed, err := s.store.UpsertVersion(ctx, documentID, hash, store.VersionMeta{
		HTTPStatus:    resp.StatusCode,
		ContentType:   contentType,
		ETag:          resp.Header("ETag"),
		LastModified:  resp.Header("Last-Modified"),
		BlobReference: blobRef,
		ExtractedText: text,
		NeedsOCR:      needsOCR,
		HighRelevance: candidate.HighRelevance,
	})
	if err != nil {
		return nil, err
	}

	return &model.DownloadedVersion{
		VersionID:     versionID,
		DocumentID:    documentID,
		URL:           candidate.URL,
		Title:         candidate.Title,
		DocType:       docType,
		Changed:       changed,
		HighRelevance: candidate.HighRelevance,
		Text:          text,
		NeedsOCR:      needsOCR,
	}, nil
}

// ClassifyStep sends changed, high-relevance documents with extracted text
// to the classifier and records the findings. With no classifier configured
// the step is a no-op.
type ClassifyStep struct {
	classifier Classifier
	store      *store.Store
	logger     *slog.Logger
}

// NewClassifyStep creates the classify step. classifier may be nil, which
// disables classification for the run.
func NewClassifyStep(classifier Classifier, st *store.Store, logger *slog.Logger) *ClassifyStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyStep{classifier: classifier, store: st, logger: logger}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string { return "classify" }

// Do classifies the eligible downloads.
func (s *ClassifyStep) Do(ctx context.Context, report *model.JurisdictionReport) error {
	if report.Err != nil || s.classifier == nil {
		return nil
	}

	for _, dl := range report.Downloads {
		if !dl.Changed || !dl.HighRelevance || dl.Text == "" {
			continue
		}

		result, err := s.classifier.Classify(ctx, classify.Request{
			URL:          dl.URL,
			Title:        dl.Title,
			Jurisdiction: report.Jurisdiction.Name,
			DocType:      dl.DocType,
			Text:         dl.Text,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("classification failed",
				"jurisdiction", report.Jurisdiction.Name,
				"url", dl.URL,
				"error", err,
			)
			continue
		}

		if err := s.store.SetClassification(ctx, dl.VersionID, result); err != nil {
			s.logger.Warn("failed to store classification",
				"url", dl.URL,
				"error", err,
			)
			continue
		}

		report.Findings = append(report.Findings, model.Finding{
			Jurisdiction:     report.Jurisdiction.Name,
			Type:             report.Jurisdiction.Type,
			Title:            dl.Title,
			URL:              dl.URL,
			DocType:          dl.DocType,
			Category:         result.Category,
			Confidence:       result.Confidence,
			Summary:          result.Summary,
			MentionsPlatform: result.MentionsPlatformKSFN,
		})
	}
	return nil
}

// CoverageStep derives the jurisdiction's coverage row from the report and
// writes it. It runs even after earlier step failures, producing the FAIL
// row.
type CoverageStep struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCoverageStep creates the coverage step.
func NewCoverageStep(st *store.Store, logger *slog.Logger) *CoverageStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoverageStep{store: st, logger: logger}
}

// Name returns the step name.
func (s *CoverageStep) Name() string { return "coverage" }

// Do writes the coverage row for the report.
func (s *CoverageStep) Do(ctx context.Context, report *model.JurisdictionReport) error {
	row := model.CoverageRow{
		RunID:          report.RunID,
		JurisdictionID: report.Jurisdiction.ID,
		Name:           report.Jurisdiction.Name,
		Website:        report.Jurisdiction.Website,
		Status:         report.CoverageStatus(),
		DocsDownloaded: report.DocsDownloaded(),
		ErrorMessage:   report.ErrorMessage,
	}
	if report.Crawl != nil {
		row.HTTPErrors = report.Crawl.HTTPErrors
		row.Timeouts = report.Crawl.Timeouts
		row.PagesFetched = report.Crawl.PagesFetched
		row.DocsFound = len(report.Crawl.DocsFound)
		row.Notes = joinNotes(report.Crawl.Notes)
	}

	if err := s.store.InsertCoverage(ctx, row); err != nil {
		return err
	}
	s.logger.Info("coverage recorded",
		"jurisdiction", report.Jurisdiction.Name,
		"status", row.Status,
		"docs_downloaded", row.DocsDownloaded,
	)
	return nil
}

// joinNotes deduplicates, sorts, and semicolon-joins traversal notes.
func joinNotes(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(notes))
	unique := make([]string, 0, len(notes))
	for _, n := range notes {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Strings(unique)
	return strings.Join(unique, "; ")
}
