// Package history keeps a SQLite record of sync runs.
//
// Every run gets a row in the runs table and every entry processed in
// that run a row in entry_results, so operators can see which upstream
// sources keep failing and when a list last changed. Snapshots on disk
// remain the only state the sync itself depends on; history is written
// on the side and never read back by the pipeline.
package history
