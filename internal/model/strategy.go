package model

// StrategyKind names an extraction strategy variant.
type StrategyKind string

const (
	// KindRegex scans the whole fetched document with regular expressions.
	KindRegex StrategyKind = "regex"

	// KindCroppedRegex scans a marker-delimited region of the document.
	KindCroppedRegex StrategyKind = "cropped_regex"

	// KindRawList treats every non-empty line as a candidate.
	KindRawList StrategyKind = "raw_list"

	// KindJSON projects candidates out of a JSON document.
	KindJSON StrategyKind = "json"

	// KindHeader derives candidates from response headers of another entry's domains.
	KindHeader StrategyKind = "header"
)

// DefaultCaptureGroup is the capture group read from regex matches
// when an entry does not name one.
const DefaultCaptureGroup = "domain"

// Strategy is the closed set of extraction variants.
// Only the types declared in this file implement it.
type Strategy interface {
	// Kind returns the variant name.
	Kind() StrategyKind

	isStrategy()
}

// Source is an upstream document reference.
// Exactly one of URL and Shared is set; Shared names a catalog level URL
// that several entries read through a single fetch.
type Source struct {
	URL    string
	Shared string
}

// IsZero reports whether the source references nothing.
func (s Source) IsZero() bool {
	return s.URL == "" && s.Shared == ""
}

// Regex extracts the configured capture group from every pattern match.
type Regex struct {
	Source Source

	// Patterns are applied in declaration order. They are compiled in
	// multi-line mode.
	Patterns []string

	// Group is the named capture group to read. Empty means DefaultCaptureGroup.
	Group string

	// Selector optionally narrows an HTML document to the text of the
	// matching elements before the patterns run.
	Selector string
}

// CaptureGroup returns the effective capture group name.
func (r Regex) CaptureGroup() string {
	if r.Group == "" {
		return DefaultCaptureGroup
	}
	return r.Group
}

// Kind implements Strategy.
func (Regex) Kind() StrategyKind { return KindRegex }

func (Regex) isStrategy() {}

// CroppedRegex is Regex applied to the text between two markers.
// An empty marker means the corresponding document bound.
type CroppedRegex struct {
	Regex

	// From is searched from the start of the document; the region starts
	// right after it.
	From string

	// To is searched only after From; the region ends right before it.
	To string
}

// Kind implements Strategy.
func (CroppedRegex) Kind() StrategyKind { return KindCroppedRegex }

func (CroppedRegex) isStrategy() {}

// RawList reads one candidate per non-empty line.
type RawList struct {
	Source Source
}

// Kind implements Strategy.
func (RawList) Kind() StrategyKind { return KindRawList }

func (RawList) isStrategy() {}

// JSON projects candidates out of a JSON document.
// Either Projection names a registered Go projection, or Path selects
// values with a JSONPath expression.
type JSON struct {
	Source Source

	// Path is a JSONPath expression such as "$.instances[*].url".
	Path string

	// Keys uses the keys of the selected object instead of its values.
	Keys bool

	// Include keeps only values containing one of these substrings.
	Include []string

	// Exclude drops values containing any of these substrings.
	Exclude []string

	// Normalize maps every value through the domain normalizer.
	Normalize bool

	// Projection names a registered projection. It takes precedence over Path.
	Projection string

	// Arg is passed to the projection.
	Arg string
}

// Kind implements Strategy.
func (JSON) Kind() StrategyKind { return KindJSON }

func (JSON) isStrategy() {}

// Header reads a response header from every domain of the parent entry.
type Header struct {
	// Parent is the ID of the entry whose snapshot supplies the domains.
	Parent string

	// Name is the response header to read, e.g. "onion-location".
	Name string
}

// Kind implements Strategy.
func (Header) Kind() StrategyKind { return KindHeader }

func (Header) isStrategy() {}

// SourceOf returns the upstream source a strategy fetches, if any.
func SourceOf(s Strategy) (Source, bool) {
	switch v := s.(type) {
	case Regex:
		return v.Source, true
	case CroppedRegex:
		return v.Source, true
	case RawList:
		return v.Source, true
	case JSON:
		return v.Source, true
	default:
		return Source{}, false
	}
}
