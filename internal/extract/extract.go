package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/snapshot"
)

// Extraction errors. They are retryable: upstream content may differ on
// the next attempt.
var (
	// ErrMarkerNotFound is returned when a crop marker is absent from the document.
	ErrMarkerNotFound = errors.New("crop marker not found")

	// ErrMalformedJSON is returned when a JSON source cannot be decoded.
	ErrMalformedJSON = errors.New("malformed JSON document")

	// ErrParentSnapshotMissing is returned when a header-derived entry
	// runs before its parent produced a snapshot.
	ErrParentSnapshotMissing = errors.New("parent snapshot missing")

	// ErrUnknownProjection is returned for JSON projections that are not registered.
	ErrUnknownProjection = errors.New("unknown projection")

	// ErrUnsupportedStrategy is returned for strategies Extract cannot handle.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
)

// Candidate is a raw extracted value. A candidate that is not Present
// stands for a field the source did not fill in (null or false).
type Candidate struct {
	Value   string
	Present bool
}

// Present returns a candidate holding v.
func Present(v string) Candidate {
	return Candidate{Value: v, Present: true}
}

// Absent returns the candidate standing for a missing value.
func Absent() Candidate {
	return Candidate{}
}

// Values returns the values of candidates that are present and non-empty.
func Values(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.Present && c.Value != "" {
			out = append(out, c.Value)
		}
	}
	return out
}

// Fetcher returns the body of an entry's upstream source.
// Implementations are expected to consult the run's fetch cache.
type Fetcher interface {
	Fetch(ctx context.Context, e model.Entry, src model.Source) ([]byte, error)
}

// HeaderReader reads a single response header of a URL.
type HeaderReader interface {
	Header(ctx context.Context, rawURL, name string) (string, bool, error)
}

// Extractor runs extraction strategies.
type Extractor struct {
	fetcher           Fetcher
	headers           HeaderReader
	snapshots         snapshot.Reader
	catalog           *model.Catalog
	policy            domain.Policy
	projections       *Registry
	headerConcurrency int
	logger            *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHeaderReader sets the client used by header-derived entries.
func WithHeaderReader(h HeaderReader) Option {
	return func(x *Extractor) {
		x.headers = h
	}
}

// WithSnapshots sets the reader of parent snapshots and the catalog used
// to resolve parent identifiers.
func WithSnapshots(r snapshot.Reader, c *model.Catalog) Option {
	return func(x *Extractor) {
		x.snapshots = r
		x.catalog = c
	}
}

// WithPolicy sets the normalization policy.
func WithPolicy(p domain.Policy) Option {
	return func(x *Extractor) {
		x.policy = p
	}
}

// WithProjections replaces the projection registry.
func WithProjections(r *Registry) Option {
	return func(x *Extractor) {
		x.projections = r
	}
}

// WithHeaderConcurrency bounds concurrent header requests per entry.
func WithHeaderConcurrency(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.headerConcurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Extractor) {
		x.logger = logger
	}
}

// New returns an Extractor reading upstream sources through fetcher.
func New(fetcher Fetcher, opts ...Option) *Extractor {
	x := &Extractor{
		fetcher:           fetcher,
		policy:            domain.DefaultPolicy(),
		projections:       DefaultRegistry(),
		headerConcurrency: 1,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	return x
}

// Extract runs the strategy of e and returns its candidates.
func (x *Extractor) Extract(ctx context.Context, e model.Entry) ([]Candidate, error) {
	switch s := e.Strategy.(type) {
	case model.Regex:
		text, err := x.text(ctx, e, s.Source, s.Selector)
		if err != nil {
			return nil, err
		}
		return scanPatterns(text, s)
	case model.CroppedRegex:
		text, err := x.text(ctx, e, s.Source, s.Selector)
		if err != nil {
			return nil, err
		}
		cropped, err := Crop(text, s.From, s.To)
		if err != nil {
			return nil, err
		}
		return scanPatterns(cropped, s.Regex)
	case model.RawList:
		body, err := x.fetcher.Fetch(ctx, e, s.Source)
		if err != nil {
			return nil, err
		}
		return RawLines(string(body)), nil
	case model.JSON:
		body, err := x.fetcher.Fetch(ctx, e, s.Source)
		if err != nil {
			return nil, err
		}
		return x.extractJSON(body, s)
	case model.Header:
		return x.extractHeaders(ctx, e, s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedStrategy, e.Strategy)
	}
}

func (x *Extractor) text(ctx context.Context, e model.Entry, src model.Source, selector string) (string, error) {
	body, err := x.fetcher.Fetch(ctx, e, src)
	if err != nil {
		return "", err
	}
	if selector == "" {
		return string(body), nil
	}
	return SelectText(body, selector)
}
