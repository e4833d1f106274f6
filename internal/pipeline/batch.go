package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/civimon/civimon/internal/model"
)

// BatchProcessor runs jurisdiction pipelines concurrently. Jurisdictions
// are independent; the shared domain rate limiter inside the fetcher is the
// only coordination between them.
//
// Design decision: a separate BatchProcessor rather than batch support on
// Pipeline keeps the Pipeline focused on one jurisdiction and leaves room
// for different batch strategies.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline per jurisdiction so no
	// state leaks between runs.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jurisdictions.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed reports, ordered as the input.
	results []*model.JurisdictionReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jurisdictions.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around a pipeline factory.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs the pipeline for every jurisdiction, at most
// `concurrency` at a time. A jurisdiction failure is recorded in its report
// and never aborts the others; the error return only reflects
// cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jurisdictions []model.Jurisdiction, runID int64) ([]*model.JurisdictionReport, error) {
	bp.logger.Info("starting run",
		"run_id", runID,
		"jurisdictions", len(jurisdictions),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	bp.results = make([]*model.JurisdictionReport, len(jurisdictions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, j := range jurisdictions {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing jurisdiction",
				"jurisdiction", j.Name,
				"index", i+1,
				"total", len(jurisdictions),
			)

			report := &model.JurisdictionReport{
				Jurisdiction: j,
				RunID:        runID,
				StartedAt:    time.Now(),
			}

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, report); err != nil {
				bp.logger.Warn("jurisdiction failed",
					"jurisdiction", j.Name,
					"error", err,
				)
			}

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("run complete",
		"run_id", runID,
		"jurisdictions", len(jurisdictions),
		"elapsed", time.Since(startTime),
	)
	return bp.results, err
}
