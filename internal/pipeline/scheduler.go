package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/mirrorsync/internal/model"
	"golang.org/x/sync/errgroup"
)

// Mode selects how entries of one tier are dispatched.
type Mode string

const (
	// ModeSequential runs one entry at a time, group after group.
	ModeSequential Mode = "sequential"

	// ModeConcurrent runs every entry of a tier at once and waits for all
	// of them before the next tier starts.
	ModeConcurrent Mode = "concurrent"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModeConcurrent:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// EntryRunner updates one entry and never fails the caller.
type EntryRunner interface {
	Run(ctx context.Context, e model.Entry) model.SyncResult
}

// Scheduler walks a catalog tier by tier.
type Scheduler struct {
	runner      EntryRunner
	mode        Mode
	groupDelay  time.Duration
	concurrency int
	onResult    func(model.SyncResult)
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMode sets the dispatch mode. The default is ModeSequential.
func WithMode(m Mode) SchedulerOption {
	return func(s *Scheduler) {
		s.mode = m
	}
}

// WithGroupDelay sets the pause between two groups in sequential mode.
// Groups with no entry in the running tier are skipped without a pause,
// and no pause follows the last group of a tier.
func WithGroupDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.groupDelay = d
	}
}

// WithConcurrency bounds the entries running at once in concurrent mode.
// Zero means no bound.
func WithConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n >= 0 {
			s.concurrency = n
		}
	}
}

// WithResultHook registers a function receiving every result. Calls are
// serialized.
func WithResultHook(fn func(model.SyncResult)) SchedulerOption {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler returns a Scheduler running entries through runner.
func NewScheduler(runner EntryRunner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner: runner,
		mode:   ModeSequential,
		sleep:  sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RunAll runs every entry of catalog and returns the results in
// completion order per tier. Entries not started before ctx is done are
// left out.
func (s *Scheduler) RunAll(ctx context.Context, catalog *model.Catalog) []model.SyncResult {
	start := time.Now()
	s.logger.Info("starting sync",
		"groups", len(catalog.Groups),
		"entries", len(catalog.Entries()),
		"mode", s.mode,
	)

	var results []model.SyncResult
	for _, tier := range catalog.Tiers() {
		if ctx.Err() != nil {
			break
		}
		s.logger.Debug("running tier", "tier", tier)
		if s.mode == ModeConcurrent {
			results = append(results, s.runTierConcurrently(ctx, catalog, tier)...)
		} else {
			results = append(results, s.runTierSequentially(ctx, catalog, tier)...)
		}
	}

	if err := ctx.Err(); err != nil {
		s.logger.Warn("sync cancelled",
			"completed", len(results),
			"reason", err,
		)
	}
	s.logger.Info("sync complete",
		"entries", len(results),
		"elapsed", time.Since(start),
	)
	return results
}

func (s *Scheduler) runTierSequentially(ctx context.Context, catalog *model.Catalog, tier int) []model.SyncResult {
	var results []model.SyncResult
	ranGroup := false
	for _, g := range catalog.Groups {
		entries := g.EntriesInTier(tier)
		if len(entries) == 0 {
			continue
		}
		if ranGroup && s.groupDelay > 0 {
			if err := s.sleep(ctx, s.groupDelay); err != nil {
				return results
			}
		}
		ranGroup = true

		for _, e := range entries {
			if ctx.Err() != nil {
				return results
			}
			results = append(results, s.run(ctx, e))
		}
	}
	return results
}

func (s *Scheduler) runTierConcurrently(ctx context.Context, catalog *model.Catalog, tier int) []model.SyncResult {
	var entries []model.Entry
	for _, g := range catalog.Groups {
		entries = append(entries, g.EntriesInTier(tier)...)
	}

	var (
		mu      sync.Mutex
		results = make([]model.SyncResult, 0, len(entries))
	)
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for _, e := range entries {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := s.run(ctx, e)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return an error
	return results
}

func (s *Scheduler) run(ctx context.Context, e model.Entry) model.SyncResult {
	res := s.runner.Run(ctx, e)
	if !res.Failed() {
		s.logger.Info("entry synced",
			"entry", res.EntryID,
			"domains", res.Domains,
			"changed", res.Changed,
		)
	}
	if s.onResult != nil {
		s.mu.Lock()
		s.onResult(res)
		s.mu.Unlock()
	}
	return res
}
