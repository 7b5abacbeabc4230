package model

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MultilineFlag is prepended to every catalog pattern so that ^ and $
// match at line boundaries of the fetched document.
const MultilineFlag = "(?m)"

// CompilePattern compiles a catalog pattern in multi-line mode.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(MultilineFlag + pattern)
}

// Catalog is the static description of every tracked service.
type Catalog struct {
	// Shared maps a handle name to a URL read by several entries.
	Shared map[string]string

	// Groups are kept in catalog order.
	Groups []Group
}

// ValidationError describes one invalid entry of a catalog.
type ValidationError struct {
	Entry  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("entry %s: %s", e.Entry, e.Reason)
}

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Resolve returns the URL a source points at.
func (c *Catalog) Resolve(src Source) (string, error) {
	if src.Shared == "" {
		return src.URL, nil
	}
	u, ok := c.Shared[src.Shared]
	if !ok {
		return "", fmt.Errorf("unknown shared source %q", src.Shared)
	}
	return u, nil
}

// Entries returns every entry of the catalog in catalog order.
func (c *Catalog) Entries() []Entry {
	var entries []Entry
	for _, g := range c.Groups {
		entries = append(entries, g.Entries...)
	}
	return entries
}

// Entry looks an entry up by ID.
func (c *Catalog) Entry(id string) (Entry, bool) {
	for _, g := range c.Groups {
		for _, e := range g.Entries {
			if e.ID() == id {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Tiers returns the distinct priorities used by the catalog, ascending.
func (c *Catalog) Tiers() []int {
	var tiers []int
	for _, g := range c.Groups {
		for _, e := range g.Entries {
			if !slices.Contains(tiers, e.Priority) {
				tiers = append(tiers, e.Priority)
			}
		}
	}
	slices.Sort(tiers)
	return tiers
}

// Filter returns a catalog holding only the named groups.
// Names are matched case-insensitively against the group name or path.
// An empty list keeps every group.
func (c *Catalog) Filter(names []string) *Catalog {
	if len(names) == 0 {
		return c
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	filtered := &Catalog{Shared: c.Shared}
	for _, g := range c.Groups {
		if want[g.Key()] || want[strings.ToLower(g.Path)] {
			filtered.Groups = append(filtered.Groups, g)
		}
	}
	return filtered
}

// Validate checks the structural invariants of the catalog once, before
// anything is scheduled. knownProjection reports whether a JSON projection
// name is registered; nil skips that check.
func (c *Catalog) Validate(knownProjection func(string) bool) error {
	var errs []error
	fail := func(id, format string, args ...any) {
		errs = append(errs, &ValidationError{Entry: id, Reason: fmt.Sprintf(format, args...)})
	}

	index := make(map[string]Entry)
	for _, g := range c.Groups {
		if g.Name == "" {
			fail(g.Path, "group has no name")
		}
		for _, e := range g.Entries {
			id := e.ID()
			if _, dup := index[id]; dup {
				fail(id, "duplicate entry identifier")
				continue
			}
			index[id] = e
			if e.Group != g.Path {
				fail(id, "group path %q does not match group %q", e.Group, g.Path)
			}
			if e.Priority < 0 {
				fail(id, "negative priority %d", e.Priority)
			}
			if e.Transform != "" && e.Transform != TransformNormalize {
				fail(id, "unknown transform %q", e.Transform)
			}
		}
	}

	for _, e := range c.Entries() {
		id := e.ID()
		if src, ok := SourceOf(e.Strategy); ok {
			switch {
			case src.IsZero():
				fail(id, "no source URL")
			case src.Shared != "":
				if _, ok := c.Shared[src.Shared]; !ok {
					fail(id, "unknown shared source %q", src.Shared)
				}
			}
		}

		switch s := e.Strategy.(type) {
		case nil:
			fail(id, "no extraction strategy")
		case Regex:
			errs = append(errs, validatePatterns(id, s)...)
		case CroppedRegex:
			errs = append(errs, validatePatterns(id, s.Regex)...)
		case JSON:
			if s.Projection == "" && s.Path == "" {
				fail(id, "json strategy needs a path or a projection")
			}
			if s.Projection != "" && knownProjection != nil && !knownProjection(s.Projection) {
				fail(id, "unknown projection %q", s.Projection)
			}
		case Header:
			if s.Name == "" {
				fail(id, "header strategy needs a header name")
			}
			parent, ok := index[s.Parent]
			if !ok {
				fail(id, "parent %q not found", s.Parent)
				break
			}
			if parent.Priority >= e.Priority {
				fail(id, "parent %q runs in tier %d, which is not before tier %d", s.Parent, parent.Priority, e.Priority)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
}

func validatePatterns(id string, r Regex) []error {
	if len(r.Patterns) == 0 {
		return []error{&ValidationError{Entry: id, Reason: "no patterns"}}
	}
	var errs []error
	groupFound := false
	for i, p := range r.Patterns {
		re, err := CompilePattern(p)
		if err != nil {
			errs = append(errs, &ValidationError{Entry: id, Reason: fmt.Sprintf("pattern %d does not compile: %v", i, err)})
			continue
		}
		if re.SubexpIndex(r.CaptureGroup()) >= 0 {
			groupFound = true
		}
	}
	if len(errs) == 0 && !groupFound {
		errs = append(errs, &ValidationError{Entry: id, Reason: fmt.Sprintf("no pattern defines capture group %q", r.CaptureGroup())})
	}
	return errs
}
