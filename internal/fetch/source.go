package fetch

import (
	"context"
	"log/slog"

	"github.com/nao1215/mirrorsync/internal/model"
)

// Getter downloads a URL.
type Getter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// SourceFetcher reads entry sources through a Cache. It resolves shared
// catalog handles and applies the configured cache scope.
type SourceFetcher struct {
	getter  Getter
	catalog *model.Catalog
	cache   *Cache
	scope   Scope
	observe func(handle string, cached bool)
	logger  *slog.Logger
}

// SourceOption configures a SourceFetcher.
type SourceOption func(*SourceFetcher)

// WithObserver registers a function called after every successful fetch.
func WithObserver(fn func(handle string, cached bool)) SourceOption {
	return func(f *SourceFetcher) {
		f.observe = fn
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(f *SourceFetcher) {
		f.logger = logger
	}
}

// NewSourceFetcher returns a SourceFetcher. A nil cache disables caching.
func NewSourceFetcher(getter Getter, catalog *model.Catalog, cache *Cache, scope Scope, opts ...SourceOption) *SourceFetcher {
	if cache == nil {
		cache = NewCache()
		scope = ScopeOff
	}
	f := &SourceFetcher{
		getter:  getter,
		catalog: catalog,
		cache:   cache,
		scope:   scope,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch implements extract.Fetcher.
func (f *SourceFetcher) Fetch(ctx context.Context, e model.Entry, src model.Source) ([]byte, error) {
	rawURL, err := f.catalog.Resolve(src)
	if err != nil {
		return nil, err
	}
	handle := Handle(f.scope, e.Group, src, rawURL)

	body, cached, err := f.cache.Do(ctx, handle, func(ctx context.Context) ([]byte, error) {
		f.logger.Debug("fetching source",
			"entry", e.ID(),
			"url", rawURL,
		)
		return f.getter.Get(ctx, rawURL, e.Headers)
	})
	if err != nil {
		return nil, err
	}
	if f.observe != nil {
		f.observe(handle, cached)
	}
	return body, nil
}
