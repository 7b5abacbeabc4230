package extract

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/nao1215/mirrorsync/internal/model"
)

type stubFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  int
	err    error
}

func (f *stubFetcher) Fetch(_ context.Context, _ model.Entry, src model.Source) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[src.URL]
	if !ok {
		return nil, errors.New("not found: " + src.URL)
	}
	return []byte(body), nil
}

func TestExtractDispatch(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"raw":  "b.com\na.com\na.com\n",
		"md":   "## Instances\n| https://one.example |\n| https://two.example |\n## Other\n| https://three.example |",
		"json": `{"instances": {"a.com": {}, "b.onion": {}}}`,
		"html": `<html><body><ul class="mirrors"><li><a href="https://one.example">One</a></li><li>two.example</li></ul><p>https://ignored.example</p></body></html>`,
	}}
	x := New(fetcher)

	tests := []struct {
		name     string
		strategy model.Strategy
		want     []string
	}{
		{
			name:     "raw list",
			strategy: model.RawList{Source: model.Source{URL: "raw"}},
			want:     []string{"b.com", "a.com", "a.com"},
		},
		{
			name: "regex",
			strategy: model.Regex{
				Source:   model.Source{URL: "md"},
				Patterns: []string{`https:\/\/(?P<domain>[\w\-\.]+)\s+\|`},
			},
			want: []string{"one.example", "two.example", "three.example"},
		},
		{
			name: "cropped regex",
			strategy: model.CroppedRegex{
				Regex: model.Regex{
					Source:   model.Source{URL: "md"},
					Patterns: []string{`https:\/\/(?P<domain>[\w\-\.]+)\s+\|`},
				},
				From: "## Instances",
				To:   "##",
			},
			want: []string{"one.example", "two.example"},
		},
		{
			name:     "json",
			strategy: model.JSON{Source: model.Source{URL: "json"}, Path: "$.instances", Keys: true, Exclude: []string{".onion"}},
			want:     []string{"a.com"},
		},
		{
			name: "html selector",
			strategy: model.Regex{
				Source:   model.Source{URL: "html"},
				Selector: "ul.mirrors li",
				Patterns: []string{`(?:https:\/\/)?(?P<domain>[a-z]+\.example)`},
			},
			want: []string{"one.example", "two.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := x.Extract(context.Background(), model.Entry{Group: "g", Network: model.NetworkClearnet, Strategy: tt.strategy})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(Values(got), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, Values(got))
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		x := New(&stubFetcher{err: boom})
		_, err := x.Extract(context.Background(), model.Entry{Strategy: model.RawList{Source: model.Source{URL: "raw"}}})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})

	t.Run("missing crop marker", func(t *testing.T) {
		t.Parallel()
		x := New(&stubFetcher{bodies: map[string]string{"md": "no markers here"}})
		_, err := x.Extract(context.Background(), model.Entry{Strategy: model.CroppedRegex{
			Regex: model.Regex{Source: model.Source{URL: "md"}, Patterns: []string{`(?P<domain>x)`}},
			From:  "## Instances",
		}})
		if !errors.Is(err, ErrMarkerNotFound) {
			t.Errorf("expected ErrMarkerNotFound, got %v", err)
		}
	})

	t.Run("nil strategy", func(t *testing.T) {
		t.Parallel()
		x := New(&stubFetcher{})
		_, err := x.Extract(context.Background(), model.Entry{})
		if !errors.Is(err, ErrUnsupportedStrategy) {
			t.Errorf("expected ErrUnsupportedStrategy, got %v", err)
		}
	})
}

func TestValues(t *testing.T) {
	t.Parallel()

	got := Values([]Candidate{Present("a"), Absent(), Present(""), Present("b")})
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}
