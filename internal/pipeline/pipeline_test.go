package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/civimon/civimon/internal/model"
)

// recordingStep appends its name to a shared log when executed.
type recordingStep struct {
	name string
	log  *[]string
	err  error
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(ctx context.Context, report *model.JurisdictionReport) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

// TestPipelineExecutesInOrder tests step ordering.
func TestPipelineExecutesInOrder(t *testing.T) {
	t.Parallel()

	var log []string
	p := New()
	p.AddSteps(
		&recordingStep{name: "first", log: &log},
		&recordingStep{name: "second", log: &log},
		&recordingStep{name: "third", log: &log},
	)

	report := &model.JurisdictionReport{}
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(log) != 3 || log[0] != "first" || log[2] != "third" {
		t.Errorf("unexpected execution order: %v", log)
	}
	if got := p.StepNames(); len(got) != 3 {
		t.Errorf("unexpected step names: %v", got)
	}
}

// TestPipelineStopsOnError tests the default stop-on-failure behavior.
func TestPipelineStopsOnError(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")
	p := New()
	p.AddSteps(
		&recordingStep{name: "first", log: &log, err: boom},
		&recordingStep{name: "second", log: &log},
	)

	report := &model.JurisdictionReport{}
	if err := p.Execute(context.Background(), report); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(log) != 1 {
		t.Errorf("second step should not run: %v", log)
	}
	if !errors.Is(report.Err, boom) || report.ErrorMessage == "" {
		t.Errorf("error not recorded on report: %v / %q", report.Err, report.ErrorMessage)
	}
}

// TestPipelineContinueOnError tests that later steps still run and see the
// recorded error.
func TestPipelineContinueOnError(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")
	p := New(WithContinueOnError(true))
	p.AddSteps(
		&recordingStep{name: "first", log: &log, err: boom},
		&recordingStep{name: "second", log: &log},
	)

	report := &model.JurisdictionReport{}
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("continue-on-error should not surface the step error, got %v", err)
	}
	if len(log) != 2 {
		t.Errorf("both steps should run: %v", log)
	}
	if !errors.Is(report.Err, boom) {
		t.Errorf("first error not preserved: %v", report.Err)
	}
}

// TestPipelineCancellation tests that a cancelled context stops execution.
func TestPipelineCancellation(t *testing.T) {
	t.Parallel()

	var log []string
	p := New()
	p.AddStep(&recordingStep{name: "never", log: &log})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := &model.JurisdictionReport{}
	if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if len(log) != 0 {
		t.Errorf("no step should run after cancellation: %v", log)
	}
}
