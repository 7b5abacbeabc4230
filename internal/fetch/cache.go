package fetch

import (
	"context"
	"sync"

	"github.com/nao1215/mirrorsync/internal/model"
	"golang.org/x/sync/singleflight"
)

// Scope selects how widely fetched bodies are shared.
type Scope string

const (
	// ScopeRun shares a body between every entry of a run that reads the same URL.
	ScopeRun Scope = "run"

	// ScopeGroup shares a body only inside one group. Shared catalog
	// handles are still shared run-wide.
	ScopeGroup Scope = "group"

	// ScopeOff disables caching of unshared URLs.
	ScopeOff Scope = "off"
)

// ParseScope converts a configuration value into a Scope.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeRun, ScopeGroup, ScopeOff:
		return Scope(s), true
	default:
		return "", false
	}
}

// Handle returns the cache handle of a source read by an entry of
// groupPath. An empty handle means the body is not cached.
func Handle(scope Scope, groupPath string, src model.Source, resolvedURL string) string {
	if src.Shared != "" {
		return "shared:" + src.Shared
	}
	switch scope {
	case ScopeRun:
		return resolvedURL
	case ScopeGroup:
		return groupPath + "|" + resolvedURL
	default:
		return ""
	}
}

// Cache is a write-once store of fetched bodies keyed by handle.
// It lives for one run and is never invalidated.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	flight  singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Lookup returns the body stored under handle.
func (c *Cache) Lookup(handle string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[handle]
	return body, ok
}

// Store saves body under handle unless a body is already stored.
// It reports whether body was stored.
func (c *Cache) Store(handle string, body []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[handle]; exists {
		return false
	}
	c.entries[handle] = body
	return true
}

// Len returns the number of cached bodies.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Do returns the body cached under handle, calling load at most once per
// handle to populate it. The boolean result reports whether the body came
// from the cache or another caller's load instead of this call's load. Concurrent callers for the same handle wait for
// the same load. Failed loads are not cached, so a later caller (such as
// a retry) loads again. An empty handle bypasses the cache.
func (c *Cache) Do(ctx context.Context, handle string, load func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if handle == "" {
		body, err := load(ctx)
		return body, false, err
	}
	if body, ok := c.Lookup(handle); ok {
		return body, true, nil
	}

	loaded := false
	ch := c.flight.DoChan(handle, func() (any, error) {
		if body, ok := c.Lookup(handle); ok {
			return body, nil
		}
		loaded = true
		body, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Store(handle, body)
		body, _ = c.Lookup(handle)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		body, _ := res.Val.([]byte)
		return body, !loaded, nil
	}
}
