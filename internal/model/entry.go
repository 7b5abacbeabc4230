package model

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TransformNormalize maps every domain of the final list through the
// domain normalizer. It is used when a capture group yields full URLs.
const TransformNormalize = "normalize"

// Entry is one (service, network) unit of work.
type Entry struct {
	// Group is the group path the entry belongs to, e.g. "youtube/piped".
	Group string

	// Network selects the snapshot file stem and report section.
	Network Network

	// Strategy turns fetched content into domain candidates.
	Strategy Strategy

	// Transform optionally rewrites the sorted domain list.
	Transform string

	// CheckLiveness keeps only domains that answer a HEAD request.
	CheckLiveness bool

	// Priority is the scheduling tier. Lower tiers run first.
	Priority int

	// Headers are extra request headers sent to the upstream source.
	Headers map[string]string
}

// ID returns the identifier of the entry, unique within a catalog.
func (e Entry) ID() string {
	return path.Join(e.Group, string(e.Network))
}

// Parent returns the ID of the entry this one derives its domains from.
func (e Entry) Parent() (string, bool) {
	if h, ok := e.Strategy.(Header); ok {
		return h.Parent, true
	}
	return "", false
}

// SnapshotPath returns the snapshot path relative to the instances root,
// without file extension.
func (e Entry) SnapshotPath() string {
	return path.Join(e.Group, e.Network.Stem())
}

// Group is a named collection of entries for one upstream service.
type Group struct {
	Name        string
	HomeURL     string
	Path        string
	Description string
	Entries     []Entry
}

var keyCaser = cases.Lower(language.Und)

// Key returns the lower-cased name used to index the group in reports.
func (g Group) Key() string {
	return keyCaser.String(strings.TrimSpace(g.Name))
}

// EntriesInTier returns the entries of the group scheduled in tier.
func (g Group) EntriesInTier(tier int) []Entry {
	var entries []Entry
	for _, e := range g.Entries {
		if e.Priority == tier {
			entries = append(entries, e)
		}
	}
	return entries
}

// Networks returns the networks covered by the group in catalog order.
func (g Group) Networks() []Network {
	seen := make(map[Network]bool, len(g.Entries))
	var networks []Network
	for _, n := range Networks {
		for _, e := range g.Entries {
			if e.Network == n && !seen[n] {
				seen[n] = true
				networks = append(networks, n)
			}
		}
	}
	return networks
}
