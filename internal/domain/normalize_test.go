package domain

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		policy Policy
		want   string
		wantOK bool
	}{
		{name: "bare scheme and host", raw: "https://foo.bar", policy: DefaultPolicy(), want: "foo.bar", wantOK: true},
		{name: "trailing slash", raw: "https://foo.bar/", policy: DefaultPolicy(), want: "foo.bar", wantOK: true},
		{name: "port is kept", raw: "http://foo.bar:8080/", policy: DefaultPolicy(), want: "foo.bar:8080", wantOK: true},
		{name: "query without path", raw: "https://foo.bar?x=1", policy: DefaultPolicy(), want: "foo.bar", wantOK: true},
		{name: "path rejected by default", raw: "https://foo.bar/search", policy: DefaultPolicy(), wantOK: false},
		{name: "path appended when allowed", raw: "https://foo.bar/search", policy: Policy{AllowPaths: true}, want: "foo.bar/search", wantOK: true},
		{name: "path dropped when neither flag is set", raw: "https://foo.bar/search", policy: Policy{}, want: "foo.bar", wantOK: true},
		{name: "ignore wins over allow", raw: "https://foo.bar/search", policy: Policy{IgnorePaths: true, AllowPaths: true}, wantOK: false},
		{name: "bare host parses as a path", raw: "foo.bar", policy: DefaultPolicy(), wantOK: false},
		{name: "bare host without path policy has no host", raw: "foo.bar", policy: Policy{}, wantOK: false},
		{name: "empty string", raw: "", policy: DefaultPolicy(), wantOK: false},
		{name: "malformed URL", raw: "https://foo bar:%zz", policy: DefaultPolicy(), wantOK: false},
		{name: "onion URL", raw: "http://aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion/", policy: DefaultPolicy(), want: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Normalize(tt.raw, tt.policy)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// Any URL with a path other than "/" yields nothing under the default policy.
func TestNormalizeRejectsEveryPath(t *testing.T) {
	t.Parallel()

	paths := []string{"/a", "/a/", "//", "/index.html", "/%20", "/a?b=c"}
	for _, p := range paths {
		if got, ok := Normalize("https://host.example"+p, DefaultPolicy()); ok {
			t.Errorf("expected path %q to be rejected, got %q", p, got)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()

	got := NormalizeAll([]string{"https://a.com/", "https://b.com/x", "not a url", "http://c.onion"}, DefaultPolicy())
	want := []string{"a.com", "c.onion"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
