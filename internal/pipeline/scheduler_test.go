package pipeline

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/mirrorsync/internal/model"
)

// recordingRunner records the order in which entries run.
type recordingRunner struct {
	mu     sync.Mutex
	order  []string
	before func(e model.Entry)
}

func (r *recordingRunner) Run(_ context.Context, e model.Entry) model.SyncResult {
	if r.before != nil {
		r.before(e)
	}
	r.mu.Lock()
	r.order = append(r.order, e.ID())
	r.mu.Unlock()
	return model.SyncResult{EntryID: e.ID(), Group: e.Group, Network: e.Network, Attempts: 1}
}

func schedulerCatalog() *model.Catalog {
	raw := model.RawList{Source: model.Source{URL: "x"}}
	return &model.Catalog{Groups: []model.Group{
		{Name: "A", Path: "a", Entries: []model.Entry{
			{Group: "a", Network: model.NetworkClearnet, Strategy: raw},
			{Group: "a", Network: model.NetworkOnion, Priority: 1, Strategy: model.Header{Parent: "a/clearnet", Name: "onion-location"}},
		}},
		{Name: "B", Path: "b", Entries: []model.Entry{
			{Group: "b", Network: model.NetworkClearnet, Strategy: raw},
			{Group: "b", Network: model.NetworkI2P, Strategy: raw},
		}},
		{Name: "C", Path: "c", Entries: []model.Entry{
			{Group: "c", Network: model.NetworkClearnet, Strategy: raw},
		}},
	}}
}

func TestSchedulerSequential(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	var sleeps []time.Duration
	var hooked []string
	s := NewScheduler(runner,
		WithGroupDelay(3*time.Second),
		WithResultHook(func(r model.SyncResult) { hooked = append(hooked, r.EntryID) }),
		WithSchedulerLogger(discardLogger()),
	)
	s.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	results := s.RunAll(context.Background(), schedulerCatalog())

	want := []string{"a/clearnet", "b/clearnet", "b/i2p", "c/clearnet", "a/onion"}
	if !slices.Equal(runner.order, want) {
		t.Errorf("expected order %v, got %v", want, runner.order)
	}
	if len(results) != len(want) {
		t.Errorf("expected %d results, got %d", len(want), len(results))
	}
	if !slices.Equal(hooked, want) {
		t.Errorf("expected hook calls %v, got %v", want, hooked)
	}
	// Two pauses between the three groups of tier 0, none in tier 1.
	if len(sleeps) != 2 {
		t.Errorf("expected 2 group delays, got %v", sleeps)
	}
}

func TestSchedulerConcurrentTierBarrier(t *testing.T) {
	t.Parallel()

	var tier0Done atomic.Int32
	violations := atomic.Int32{}
	runner := &recordingRunner{}
	runner.before = func(e model.Entry) {
		if e.Priority == 0 {
			time.Sleep(10 * time.Millisecond)
			tier0Done.Add(1)
			return
		}
		if tier0Done.Load() != 4 {
			violations.Add(1)
		}
	}

	s := NewScheduler(runner, WithMode(ModeConcurrent), WithConcurrency(2), WithSchedulerLogger(discardLogger()))
	results := s.RunAll(context.Background(), schedulerCatalog())

	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}
	if violations.Load() != 0 {
		t.Error("tier 1 started before tier 0 completed")
	}
	if results[len(results)-1].EntryID != "a/onion" {
		t.Errorf("expected tier 1 entry last, got %s", results[len(results)-1].EntryID)
	}
}

func TestSchedulerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &recordingRunner{}
	s := NewScheduler(runner,
		WithResultHook(func(model.SyncResult) { cancel() }),
		WithSchedulerLogger(discardLogger()),
	)

	results := s.RunAll(ctx, schedulerCatalog())
	if len(results) != 1 {
		t.Errorf("expected 1 result before cancellation, got %d", len(results))
	}
	if len(runner.order) != 1 {
		t.Errorf("expected 1 entry run, got %v", runner.order)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"sequential", "concurrent"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): unexpected error %v", s, err)
		}
	}
	if _, err := ParseMode("async"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
