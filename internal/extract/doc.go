// Package extract turns fetched upstream documents into domain candidates.
//
// Extract dispatches over the closed set of strategies declared in
// package model. Every variant yields candidates in document order;
// normalization beyond what a variant requires, deduplication and
// sorting happen later in the update pipeline.
//
// The regex variant deliberately reproduces an offset-advancing scan
// rather than a plain global match: the number of iterations is the
// match count of the whole text, each search starts one character after
// the previous match ended, and the offset carries over from one pattern
// to the next. Existing catalog patterns rely on this behavior, so it
// must not be replaced by FindAll.
package extract
