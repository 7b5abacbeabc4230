package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/mirrorsync/internal/model"
)

func scanPatterns(text string, r model.Regex) ([]Candidate, error) {
	patterns := make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		re, err := model.CompilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		patterns = append(patterns, re)
	}
	return Scan(text, patterns, r.CaptureGroup()), nil
}

// Scan runs the offset-advancing scan over text.
//
// For each pattern in order it counts the matches of the whole text and
// then searches that many times, each time in text[from:]. After a match
// the offset moves one character past the match end. The offset is shared
// by all patterns. A match whose group did not participate, or a pattern
// without that group, yields nothing.
func Scan(text string, patterns []*regexp.Regexp, group string) []Candidate {
	var out []Candidate
	from := 0
	for _, re := range patterns {
		count := len(re.FindAllStringIndex(text, -1))
		gi := re.SubexpIndex(group)
		for range count {
			loc := re.FindStringSubmatchIndex(text[from:])
			if loc == nil {
				break
			}
			if gi >= 0 && loc[2*gi] >= 0 {
				out = append(out, Present(text[from+loc[2*gi]:from+loc[2*gi+1]]))
			}
			from = skipRune(text, from+loc[1])
		}
	}
	return out
}

// skipRune returns the offset one character after i, clamped to len(text).
func skipRune(text string, i int) int {
	if i >= len(text) {
		return len(text)
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + size
}

// Crop returns the text between the end of from and the start of to.
// to is searched only after from. An empty marker means the document bound.
func Crop(text, from, to string) (string, error) {
	start := 0
	if from != "" {
		i := strings.Index(text, from)
		if i < 0 {
			return "", fmt.Errorf("%w: %q", ErrMarkerNotFound, from)
		}
		start = i + len(from)
	}
	rest := text[start:]
	if to != "" {
		j := strings.Index(rest, to)
		if j < 0 {
			return "", fmt.Errorf("%w: %q", ErrMarkerNotFound, to)
		}
		rest = rest[:j]
	}
	return rest, nil
}

// RawLines returns every non-empty trimmed line of text.
func RawLines(text string) []Candidate {
	var out []Candidate
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, Present(line))
		}
	}
	return out
}
