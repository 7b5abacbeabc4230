package domain

import (
	"net/url"
)

// Policy controls how URLs carrying a path are treated.
type Policy struct {
	// IgnorePaths rejects every URL with a path other than "" or "/".
	IgnorePaths bool

	// AllowPaths keeps the path appended to the host. It only applies
	// when IgnorePaths is false.
	AllowPaths bool
}

// DefaultPolicy rejects URLs with a path.
func DefaultPolicy() Policy {
	return Policy{IgnorePaths: true}
}

// Normalize returns the canonical domain for raw, or false when raw is
// rejected. raw is expected to be an absolute URL; a bare host has no
// scheme and parses as a path, so it is rejected under the default policy.
func Normalize(raw string, p Policy) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	hasPath := u.Path != "" && u.Path != "/"
	var out string
	switch {
	case !hasPath:
		out = u.Host
	case p.IgnorePaths:
		return "", false
	case p.AllowPaths:
		out = u.Host + u.Path
	default:
		out = u.Host
	}

	if u.Host == "" || out == "" {
		return "", false
	}
	return out, true
}

// NormalizeAll maps every value through Normalize and drops rejected ones.
func NormalizeAll(values []string, p Policy) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if d, ok := Normalize(v, p); ok {
			out = append(out, d)
		}
	}
	return out
}
