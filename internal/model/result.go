package model

import "time"

// SyncResult is the outcome of one entry in one run.
type SyncResult struct {
	EntryID  string
	Group    string
	Network  Network
	Changed  bool
	Domains  int
	Attempts int
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Failed reports whether the entry ended in a terminal failure.
func (r SyncResult) Failed() bool {
	return r.Err != nil
}

// Outcome returns a short label for logs and metrics.
func (r SyncResult) Outcome() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}
