// Package pipeline updates the snapshots of catalog entries.
//
// One entry is processed by a Pipeline of Steps sharing an EntryRun:
// extraction, cleanup of the candidate list, optional validation and
// liveness filtering, then a diff against the stored snapshot and a write
// when the list changed. The Updater assembles that pipeline, the Retrier
// wraps it with bounded retries, and the Scheduler walks the catalog tier
// by tier, sequentially or concurrently.
package pipeline
