package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/mirrorsync/internal/model"
)

type countingGetter struct {
	calls atomic.Int32
	mu    sync.Mutex
	urls  []string
	err   error
}

func (g *countingGetter) Get(_ context.Context, rawURL string, _ map[string]string) ([]byte, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.urls = append(g.urls, rawURL)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return []byte("body of " + rawURL), nil
}

func TestSourceFetcherScopes(t *testing.T) {
	t.Parallel()

	catalog := &model.Catalog{Shared: map[string]string{"simple_web": "https://simple.example/instances.json"}}
	a := model.Entry{Group: "a", Network: model.NetworkClearnet}
	b := model.Entry{Group: "b", Network: model.NetworkClearnet}
	plain := model.Source{URL: "https://upstream.example/list"}
	shared := model.Source{Shared: "simple_web"}

	tests := []struct {
		name      string
		scope     Scope
		src       model.Source
		wantCalls int32
	}{
		{name: "run scope shares across groups", scope: ScopeRun, src: plain, wantCalls: 1},
		{name: "group scope fetches once per group", scope: ScopeGroup, src: plain, wantCalls: 2},
		{name: "off scope always fetches", scope: ScopeOff, src: plain, wantCalls: 4},
		{name: "shared handle ignores scope", scope: ScopeOff, src: shared, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			getter := &countingGetter{}
			f := NewSourceFetcher(getter, catalog, NewCache(), tt.scope)
			for _, e := range []model.Entry{a, a, b, b} {
				if _, err := f.Fetch(context.Background(), e, tt.src); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if got := getter.calls.Load(); got != tt.wantCalls {
				t.Errorf("expected %d fetches, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestSourceFetcherResolvesSharedURL(t *testing.T) {
	t.Parallel()

	catalog := &model.Catalog{Shared: map[string]string{"simple_web": "https://simple.example/instances.json"}}
	getter := &countingGetter{}
	var observed []bool
	f := NewSourceFetcher(getter, catalog, NewCache(), ScopeGroup, WithObserver(func(_ string, cached bool) {
		observed = append(observed, cached)
	}))

	e := model.Entry{Group: "translate/simplytranslate", Network: model.NetworkOnion}
	for range 2 {
		body, err := f.Fetch(context.Background(), e, model.Source{Shared: "simple_web"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != "body of https://simple.example/instances.json" {
			t.Errorf("unexpected body %q", body)
		}
	}
	if len(observed) != 2 || observed[0] || !observed[1] {
		t.Errorf("expected [false true], got %v", observed)
	}

	_, err := f.Fetch(context.Background(), e, model.Source{Shared: "missing"})
	if err == nil {
		t.Error("expected error for unknown shared source")
	}
}

func TestSourceFetcherDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	getter := &countingGetter{err: boom}
	f := NewSourceFetcher(getter, &model.Catalog{}, NewCache(), ScopeRun)
	e := model.Entry{Group: "g", Network: model.NetworkClearnet}
	src := model.Source{URL: "https://upstream.example"}

	for range 2 {
		if _, err := f.Fetch(context.Background(), e, src); !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	}
	if got := getter.calls.Load(); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}
