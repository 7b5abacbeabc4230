package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/mirrorsync/internal/extract"
	"github.com/nao1215/mirrorsync/internal/model"
)

// EntryRun is the state shared by the steps of one entry update.
type EntryRun struct {
	// Entry is the entry being updated.
	Entry model.Entry

	// Candidates holds the raw output of the extraction strategy.
	Candidates []extract.Candidate

	// Domains is the working domain list. After the sort step it is kept
	// in canonical order.
	Domains []string

	// Previous is the stored snapshot, valid when HasPrevious is true.
	Previous    []string
	HasPrevious bool

	// Changed reports whether the snapshot must be (or was) rewritten.
	Changed bool
}

// NewEntryRun returns the initial state for e.
func NewEntryRun(e model.Entry) *EntryRun {
	return &EntryRun{Entry: e}
}

// Step is one stage of an entry update.
type Step interface {
	// Do executes the step. Any error aborts the run and is returned to
	// the caller unchanged.
	Do(ctx context.Context, run *EntryRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first error.
// Cancellation is checked before each step; a step that already started
// handles its own deadline.
func (p *Pipeline) Execute(ctx context.Context, run *EntryRun) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"entry", run.Entry.ID(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"entry", run.Entry.ID(),
		)
		if err := step.Do(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
