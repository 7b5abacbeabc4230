package extract

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/mirrorsync/internal/model"
)

type stubSnapshots struct {
	lists map[string][]string
}

func (s stubSnapshots) Load(e model.Entry) ([]string, bool, error) {
	list, ok := s.lists[e.ID()]
	return list, ok, nil
}

type stubHeaders struct {
	mu      sync.Mutex
	values  map[string]string
	failing map[string]bool
	seen    []string
}

func (h *stubHeaders) Header(_ context.Context, rawURL, name string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, rawURL)
	if name != "onion-location" {
		return "", false, errors.New("unexpected header " + name)
	}
	host := strings.TrimPrefix(rawURL, "https://")
	if h.failing[host] {
		return "", false, errors.New("connection refused")
	}
	v, ok := h.values[host]
	return v, ok, nil
}

func headerCatalog() *model.Catalog {
	return &model.Catalog{Groups: []model.Group{{
		Name: "Piped",
		Path: "youtube/piped",
		Entries: []model.Entry{
			{Group: "youtube/piped", Network: model.NetworkClearnet, Strategy: model.RawList{Source: model.Source{URL: "x"}}},
			{Group: "youtube/piped", Network: model.NetworkOnion, Priority: 1, Strategy: model.Header{Parent: "youtube/piped/clearnet", Name: "onion-location"}},
		},
	}}}
}

func TestExtractHeaders(t *testing.T) {
	t.Parallel()

	catalog := headerCatalog()
	child := catalog.Groups[0].Entries[1]
	snaps := stubSnapshots{lists: map[string][]string{
		"youtube/piped/clearnet": {"a.example", "b.example", "c.example", "d.example"},
	}}
	headers := &stubHeaders{
		values: map[string]string{
			"a.example": "http://aaa.onion/",
			"c.example": "http://ccc.onion/watch?v=1",
			"d.example": "http://ddd.onion",
		},
		failing: map[string]bool{"b.example": true},
	}

	x := New(nil,
		WithSnapshots(snaps, catalog),
		WithHeaderReader(headers),
		WithHeaderConcurrency(3),
	)

	got, err := x.Extract(context.Background(), child)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"aaa.onion", "ddd.onion"}
	if !slices.Equal(Values(got), want) {
		t.Errorf("expected %v, got %v", want, Values(got))
	}
	if len(headers.seen) != 4 {
		t.Errorf("expected 4 header requests, got %d", len(headers.seen))
	}
}

func TestExtractHeadersParentMissing(t *testing.T) {
	t.Parallel()

	catalog := headerCatalog()
	x := New(nil,
		WithSnapshots(stubSnapshots{}, catalog),
		WithHeaderReader(&stubHeaders{}),
	)
	_, err := x.Extract(context.Background(), catalog.Groups[0].Entries[1])
	if !errors.Is(err, ErrParentSnapshotMissing) {
		t.Errorf("expected ErrParentSnapshotMissing, got %v", err)
	}
}
