package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/model"
)

// Updater brings the snapshot of one entry up to date.
type Updater struct {
	store            Store
	extractor        Extractor
	prober           Prober
	policy           domain.Policy
	escapeDuplicates bool
	strict           bool
	logger           *slog.Logger
	pipeline         *Pipeline
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithProber sets the liveness prober used by entries that check liveness.
func WithProber(p Prober) UpdaterOption {
	return func(u *Updater) {
		u.prober = p
	}
}

// WithPolicy sets the normalization policy of the normalize transform.
func WithPolicy(p domain.Policy) UpdaterOption {
	return func(u *Updater) {
		u.policy = p
	}
}

// WithEscapeDuplicates enables or disables deduplication. It is enabled by default.
func WithEscapeDuplicates(enabled bool) UpdaterOption {
	return func(u *Updater) {
		u.escapeDuplicates = enabled
	}
}

// WithStrictDomains drops domains that fail host name validation.
func WithStrictDomains(enabled bool) UpdaterOption {
	return func(u *Updater) {
		u.strict = enabled
	}
}

// WithUpdaterLogger sets the logger.
func WithUpdaterLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = logger
	}
}

// NewUpdater returns an Updater writing to store and reading upstream
// content through extractor.
func NewUpdater(store Store, extractor Extractor, opts ...UpdaterOption) *Updater {
	u := &Updater{
		store:            store,
		extractor:        extractor,
		policy:           domain.DefaultPolicy(),
		escapeDuplicates: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}

	p := New(WithLogger(u.logger))
	p.AddSteps(
		NewEnsureDirStep(store),
		NewExtractStep(extractor),
		DropAbsentStep{},
	)
	if u.escapeDuplicates {
		p.AddStep(NewDedupStep(u.logger))
	}
	p.AddSteps(
		SortStep{},
		NewTransformStep(u.policy),
	)
	if u.strict {
		p.AddStep(NewValidateStep(u.logger))
	}
	p.AddSteps(
		NewLivenessStep(u.prober, u.logger),
		NewDiffStep(store),
		NewPersistStep(store),
	)
	u.pipeline = p
	return u
}

// Steps returns the names of the steps run for every entry.
func (u *Updater) Steps() []string {
	return u.pipeline.StepNames()
}

// Execute updates e and returns the final state of the run.
func (u *Updater) Execute(ctx context.Context, e model.Entry) (*EntryRun, error) {
	run := NewEntryRun(e)
	if err := u.pipeline.Execute(ctx, run); err != nil {
		return run, err
	}
	u.logger.Debug("entry updated",
		"entry", e.ID(),
		"domains", len(run.Domains),
		"changed", run.Changed,
	)
	return run, nil
}

// Run updates e and reports whether its snapshot changed.
func (u *Updater) Run(ctx context.Context, e model.Entry) (bool, error) {
	run, err := u.Execute(ctx, e)
	if err != nil {
		return false, err
	}
	return run.Changed, nil
}
