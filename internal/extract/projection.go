package extract

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Projection turns a decoded JSON document into candidates. arg is the
// per-entry parameter from the catalog.
type Projection func(doc any, arg string) ([]Candidate, error)

// ErrUnexpectedShape is returned when a document does not have the
// structure a projection expects.
var ErrUnexpectedShape = errors.New("unexpected JSON shape")

// Registry holds named projections.
type Registry struct {
	mu          sync.RWMutex
	projections map[string]Projection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{projections: make(map[string]Projection)}
}

// DefaultRegistry returns a registry holding the built-in projections.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("simpleweb", projectSimpleWeb)
	r.Register("invidious", projectInvidious)
	r.Register("url-host", projectURLHost)
	return r
}

// Register adds or replaces a projection.
func (r *Registry) Register(name string, p Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projections[name] = p
}

// Lookup returns the named projection.
func (r *Registry) Lookup(name string) (Projection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projections[name]
	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.projections))
	for n := range r.projections {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// projectSimpleWeb reads {"projects": [{"id": ..., <field>: [...]}]}.
// arg is "<project id>:<field>". A missing field yields no candidates.
func projectSimpleWeb(doc any, arg string) ([]Candidate, error) {
	id, field, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("simpleweb: argument %q is not <id>:<field>", arg)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: simpleweb root is %T", ErrUnexpectedShape, doc)
	}
	projects, ok := root["projects"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: simpleweb has no projects list", ErrUnexpectedShape)
	}
	for _, p := range projects {
		project, ok := p.(map[string]any)
		if !ok || project["id"] != id {
			continue
		}
		values, _ := project[field].([]any)
		out := make([]Candidate, 0, len(values))
		for _, v := range values {
			out = append(out, scalar(v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: simpleweb project %q not found", ErrUnexpectedShape, id)
}

// projectInvidious reads [[name, {"type": ...}], ...] and keeps names
// whose type equals arg.
func projectInvidious(doc any, arg string) ([]Candidate, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: invidious root is %T", ErrUnexpectedShape, doc)
	}
	var out []Candidate
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("%w: invidious item is not a pair", ErrUnexpectedShape)
		}
		info, ok := pair[1].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: invidious item has no details", ErrUnexpectedShape)
		}
		if info["type"] == arg {
			out = append(out, scalar(pair[0]))
		}
	}
	return out, nil
}

var urlHostPattern = regexp.MustCompile(`^https?://([^/\s]*)/?`)

// projectURLHost reads a list of objects and returns the host part of
// the URL stored in field arg (default "url").
func projectURLHost(doc any, arg string) ([]Candidate, error) {
	if arg == "" {
		arg = "url"
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: url-host root is %T", ErrUnexpectedShape, doc)
	}
	out := make([]Candidate, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: url-host item is %T", ErrUnexpectedShape, item)
		}
		raw, _ := obj[arg].(string)
		m := urlHostPattern.FindStringSubmatch(raw)
		if m == nil {
			out = append(out, Absent())
			continue
		}
		out = append(out, Present(m[1]))
	}
	return out, nil
}
