package model

import "testing"

func TestEntryID(t *testing.T) {
	t.Parallel()

	e := Entry{Group: "youtube/piped", Network: NetworkOnion}
	if got := e.ID(); got != "youtube/piped/onion" {
		t.Errorf("expected youtube/piped/onion, got %q", got)
	}
	if got := e.SnapshotPath(); got != "youtube/piped/onion" {
		t.Errorf("expected youtube/piped/onion, got %q", got)
	}

	cn := Entry{Group: "youtube/piped", Network: NetworkClearnet}
	if got := cn.SnapshotPath(); got != "youtube/piped/instances" {
		t.Errorf("expected youtube/piped/instances, got %q", got)
	}
}

func TestEntryParent(t *testing.T) {
	t.Parallel()

	e := Entry{Strategy: Header{Parent: "a/clearnet", Name: "onion-location"}}
	parent, ok := e.Parent()
	if !ok || parent != "a/clearnet" {
		t.Errorf("expected parent a/clearnet, got %q (%v)", parent, ok)
	}

	if _, ok := (Entry{Strategy: RawList{}}).Parent(); ok {
		t.Error("expected raw list entry to have no parent")
	}
}

func TestGroupKeyAndNetworks(t *testing.T) {
	t.Parallel()

	g := Group{
		Name: "SearXNG",
		Entries: []Entry{
			{Network: NetworkI2P},
			{Network: NetworkClearnet},
			{Network: NetworkI2P},
		},
	}
	if g.Key() != "searxng" {
		t.Errorf("expected searxng, got %q", g.Key())
	}
	networks := g.Networks()
	if len(networks) != 2 || networks[0] != NetworkClearnet || networks[1] != NetworkI2P {
		t.Errorf("expected [clearnet i2p], got %v", networks)
	}
}

func TestParseNetwork(t *testing.T) {
	t.Parallel()

	for _, n := range Networks {
		got, err := ParseNetwork(string(n))
		if err != nil || got != n {
			t.Errorf("ParseNetwork(%q) = %q, %v", n, got, err)
		}
	}
	if _, err := ParseNetwork("gopher"); err == nil {
		t.Error("expected error for unknown network")
	}
}

func TestSyncResultOutcome(t *testing.T) {
	t.Parallel()

	if (SyncResult{Changed: true}).Outcome() != "changed" {
		t.Error("expected changed")
	}
	if (SyncResult{}).Outcome() != "unchanged" {
		t.Error("expected unchanged")
	}
	if (SyncResult{Changed: true, Err: errTest}).Outcome() != "failed" {
		t.Error("expected failed")
	}
}

var errTest = testError("boom")

type testError string

func (e testError) Error() string { return string(e) }
