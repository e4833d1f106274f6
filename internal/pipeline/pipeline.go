package pipeline

import (
	"context"
	"log/slog"

	"github.com/civimon/civimon/internal/model"
)

// Step is one stage of a jurisdiction's run. Steps execute in sequence and
// communicate through the shared JurisdictionReport.
//
// Design decision: an interface rather than function types, because steps
// carry configuration state (store handles, clients) and a Name() keeps
// logs readable.
type Step interface {
	// Do executes the step against the accumulated report. A returned
	// error is fatal for the jurisdiction; per-document failures should be
	// logged and skipped instead.
	Do(ctx context.Context, report *model.JurisdictionReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for one jurisdiction.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps later steps running after one fails. The run
	// pipeline enables this so the coverage step can still write a FAIL
	// row when the crawl step blew up.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps after
// one fails. The failure is recorded in the report either way.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline; add steps with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step. Steps execute in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against the report. The first step
// error is recorded in the report; with continueOnError the remaining steps
// still run (and see the recorded error), otherwise execution stops.
func (p *Pipeline) Execute(ctx context.Context, report *model.JurisdictionReport) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"jurisdiction", report.Jurisdiction.Name,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"jurisdiction", report.Jurisdiction.Name,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"jurisdiction", report.Jurisdiction.Name,
				"error", err,
			)
			if report.Err == nil {
				report.Err = err
				report.ErrorMessage = err.Error()
			}
			if !p.continueOnError {
				return err
			}
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
