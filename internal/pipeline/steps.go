package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/extract"
	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/snapshot"
)

// Store reads and writes entry snapshots.
type Store interface {
	EnsureDir(e model.Entry) error
	Load(e model.Entry) ([]string, bool, error)
	Save(e model.Entry, domains []string) error
}

// Extractor turns an entry's upstream content into candidates.
type Extractor interface {
	Extract(ctx context.Context, e model.Entry) ([]extract.Candidate, error)
}

// Prober reports whether a domain is reachable.
type Prober interface {
	Alive(ctx context.Context, domain string) bool
}

// persistError marks err as a snapshot write failure.
func persistError(e model.Entry, err error) error {
	if errors.Is(err, snapshot.ErrPersist) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", snapshot.ErrPersist, e.ID(), err)
}

// EnsureDirStep creates the snapshot directory of the entry.
type EnsureDirStep struct {
	store Store
}

// NewEnsureDirStep creates a new EnsureDirStep.
func NewEnsureDirStep(store Store) *EnsureDirStep {
	return &EnsureDirStep{store: store}
}

// Name returns the step name.
func (s *EnsureDirStep) Name() string {
	return "ensure_dir"
}

// Do executes the step.
func (s *EnsureDirStep) Do(_ context.Context, run *EntryRun) error {
	if err := s.store.EnsureDir(run.Entry); err != nil {
		return persistError(run.Entry, err)
	}
	return nil
}

// ExtractStep runs the entry's extraction strategy.
type ExtractStep struct {
	extractor Extractor
}

// NewExtractStep creates a new ExtractStep.
func NewExtractStep(extractor Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the step.
func (s *ExtractStep) Do(ctx context.Context, run *EntryRun) error {
	cs, err := s.extractor.Extract(ctx, run.Entry)
	if err != nil {
		return fmt.Errorf("extract %s: %w", run.Entry.ID(), err)
	}
	run.Candidates = cs
	return nil
}

// DropAbsentStep keeps the candidates that carry a value.
type DropAbsentStep struct{}

// Name returns the step name.
func (DropAbsentStep) Name() string {
	return "drop_absent"
}

// Do executes the step.
func (DropAbsentStep) Do(_ context.Context, run *EntryRun) error {
	run.Domains = extract.Values(run.Candidates)
	return nil
}

// DedupStep removes repeated domains, keeping the first occurrence.
// Repeated values are logged before they are removed.
type DedupStep struct {
	logger *slog.Logger
}

// NewDedupStep creates a new DedupStep.
func NewDedupStep(logger *slog.Logger) *DedupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupStep{logger: logger}
}

// Name returns the step name.
func (s *DedupStep) Name() string {
	return "dedup"
}

// Do executes the step.
func (s *DedupStep) Do(_ context.Context, run *EntryRun) error {
	unique, duplicated := Dedup(run.Domains)
	if len(duplicated) > 0 {
		s.logger.Info("duplicated domains",
			"entry", run.Entry.ID(),
			"domains", duplicated,
		)
	}
	run.Domains = unique
	return nil
}

// Dedup returns the distinct values of list in first-seen order and the
// values that occurred more than once.
func Dedup(list []string) (unique, duplicated []string) {
	seen := make(map[string]int, len(list))
	unique = make([]string, 0, len(list))
	for _, v := range list {
		seen[v]++
		switch seen[v] {
		case 1:
			unique = append(unique, v)
		case 2:
			duplicated = append(duplicated, v)
		}
	}
	return unique, duplicated
}

// SortStep orders the domain list lexicographically.
type SortStep struct{}

// Name returns the step name.
func (SortStep) Name() string {
	return "sort"
}

// Do executes the step.
func (SortStep) Do(_ context.Context, run *EntryRun) error {
	slices.Sort(run.Domains)
	return nil
}

// TransformStep applies the entry's post-extraction transform.
// Rejected values are dropped; the remaining order is kept.
type TransformStep struct {
	policy domain.Policy
}

// NewTransformStep creates a new TransformStep.
func NewTransformStep(policy domain.Policy) *TransformStep {
	return &TransformStep{policy: policy}
}

// Name returns the step name.
func (s *TransformStep) Name() string {
	return "transform"
}

// Do executes the step.
func (s *TransformStep) Do(_ context.Context, run *EntryRun) error {
	switch run.Entry.Transform {
	case "":
		return nil
	case model.TransformNormalize:
		run.Domains = domain.NormalizeAll(run.Domains, s.policy)
		return nil
	default:
		return fmt.Errorf("entry %s: unknown transform %q", run.Entry.ID(), run.Entry.Transform)
	}
}

// ValidateStep drops domains that are not valid host names.
type ValidateStep struct {
	logger *slog.Logger
}

// NewValidateStep creates a new ValidateStep.
func NewValidateStep(logger *slog.Logger) *ValidateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStep{logger: logger}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do executes the step.
func (s *ValidateStep) Do(_ context.Context, run *EntryRun) error {
	kept := run.Domains[:0]
	for _, d := range run.Domains {
		if err := domain.Validate(d); err != nil {
			s.logger.Warn("invalid domain dropped",
				"entry", run.Entry.ID(),
				"domain", d,
				"error", err,
			)
			continue
		}
		kept = append(kept, d)
	}
	run.Domains = kept
	return nil
}

// LivenessStep keeps only reachable domains when the entry asks for it.
// An unreachable domain is filtered out; it never fails the run.
type LivenessStep struct {
	prober Prober
	logger *slog.Logger
}

// NewLivenessStep creates a new LivenessStep.
func NewLivenessStep(prober Prober, logger *slog.Logger) *LivenessStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LivenessStep{prober: prober, logger: logger}
}

// Name returns the step name.
func (s *LivenessStep) Name() string {
	return "liveness"
}

// Do executes the step.
func (s *LivenessStep) Do(ctx context.Context, run *EntryRun) error {
	if !run.Entry.CheckLiveness || s.prober == nil {
		return nil
	}
	alive := make([]string, 0, len(run.Domains))
	for _, d := range run.Domains {
		if s.prober.Alive(ctx, d) {
			alive = append(alive, d)
			continue
		}
		s.logger.Debug("unreachable domain dropped",
			"entry", run.Entry.ID(),
			"domain", d,
		)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	run.Domains = alive
	return nil
}

// DiffStep compares the domain list with the stored snapshot.
type DiffStep struct {
	store Store
}

// NewDiffStep creates a new DiffStep.
func NewDiffStep(store Store) *DiffStep {
	return &DiffStep{store: store}
}

// Name returns the step name.
func (s *DiffStep) Name() string {
	return "diff"
}

// Do executes the step.
func (s *DiffStep) Do(_ context.Context, run *EntryRun) error {
	prev, ok, err := s.store.Load(run.Entry)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", run.Entry.ID(), err)
	}
	run.Previous, run.HasPrevious = prev, ok
	run.Changed = !ok || !snapshot.Equal(run.Domains, prev)
	return nil
}

// PersistStep writes the snapshot when the list changed.
type PersistStep struct {
	store Store
}

// NewPersistStep creates a new PersistStep.
func NewPersistStep(store Store) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the step.
func (s *PersistStep) Do(_ context.Context, run *EntryRun) error {
	if !run.Changed {
		return nil
	}
	if err := s.store.Save(run.Entry, run.Domains); err != nil {
		return persistError(run.Entry, err)
	}
	return nil
}
