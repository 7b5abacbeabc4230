// Package report renders the published summaries of the snapshot tree.
//
// Reports are derived only from the structured snapshot artifacts, read
// through snapshot.Reader, and never modify them:
//   - per group: ReadMe.MD and all.json next to the snapshots
//   - global: instances/all.json and instances/all.md
//
// SummaryWriter prints the outcome of a sync run for the terminal.
package report
