package extract

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/model"
)

func (x *Extractor) extractJSON(body []byte, s model.JSON) ([]Candidate, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	var (
		cs  []Candidate
		err error
	)
	if s.Projection != "" {
		project, ok := x.projections.Lookup(s.Projection)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, s.Projection)
		}
		cs, err = project(doc, s.Arg)
	} else {
		cs, err = selectPath(doc, s.Path, s.Keys)
	}
	if err != nil {
		return nil, err
	}

	return refine(cs, s, x.policy), nil
}

// selectPath evaluates a JSONPath expression and flattens the result.
func selectPath(doc any, path string, keys bool) ([]Candidate, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}

	if keys {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jsonpath %q: keys requested but result is %T", path, v)
		}
		names := make([]string, 0, len(obj))
		for k := range obj {
			names = append(names, k)
		}
		slices.Sort(names)
		out := make([]Candidate, 0, len(names))
		for _, k := range names {
			out = append(out, Present(k))
		}
		return out, nil
	}

	if list, ok := v.([]any); ok {
		out := make([]Candidate, 0, len(list))
		for _, item := range list {
			out = append(out, scalar(item))
		}
		return out, nil
	}
	return []Candidate{scalar(v)}, nil
}

// scalar converts a decoded JSON value into a candidate. Only strings
// carry domains; null, booleans and structured values are absent.
func scalar(v any) Candidate {
	if s, ok := v.(string); ok {
		return Present(s)
	}
	return Absent()
}

// refine applies the substring filters and optional normalization.
func refine(cs []Candidate, s model.JSON, p domain.Policy) []Candidate {
	out := make([]Candidate, 0, len(cs))
	for _, c := range cs {
		if !c.Present {
			out = append(out, c)
			continue
		}
		if len(s.Include) > 0 && !containsAny(c.Value, s.Include) {
			continue
		}
		if containsAny(c.Value, s.Exclude) {
			continue
		}
		if s.Normalize {
			d, ok := domain.Normalize(c.Value, p)
			if !ok {
				out = append(out, Absent())
				continue
			}
			c = Present(d)
		}
		out = append(out, c)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
