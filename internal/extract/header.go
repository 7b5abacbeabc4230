package extract

import (
	"context"
	"fmt"

	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/model"
	"golang.org/x/sync/errgroup"
)

// extractHeaders reads header s.Name from every domain of the parent
// snapshot. A missing header yields nothing; a failed request is logged
// and skipped so that one broken mirror cannot fail the entry.
func (x *Extractor) extractHeaders(ctx context.Context, e model.Entry, s model.Header) ([]Candidate, error) {
	if x.snapshots == nil || x.catalog == nil || x.headers == nil {
		return nil, fmt.Errorf("%w: header strategy needs snapshots and a header reader", ErrUnsupportedStrategy)
	}
	parent, ok := x.catalog.Entry(s.Parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParentSnapshotMissing, s.Parent)
	}
	domains, exists, err := x.snapshots.Load(parent)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrParentSnapshotMissing, s.Parent)
	}

	results := make([]Candidate, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.headerConcurrency)

	for i, d := range domains {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, found, err := x.headers.Header(gctx, "https://"+d, s.Name)
			if err != nil {
				x.logger.Warn("header lookup skipped",
					"entry", e.ID(),
					"domain", d,
					"header", s.Name,
					"error", err,
				)
				return nil
			}
			if !found {
				return nil
			}
			if normalized, ok := domain.Normalize(value, x.policy); ok {
				results[i] = Present(normalized)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(results))
	for _, c := range results {
		if c.Present {
			out = append(out, c)
		}
	}
	return out, nil
}
