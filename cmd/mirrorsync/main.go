// Package main provides the entry point for the mirrorsync CLI.
//
// mirrorsync keeps a directory of public mirrors of privacy front-ends up
// to date. Each run re-reads the upstream instance lists named in the
// catalog, extracts domains and rewrites a snapshot only when its content
// changed.
//
// Usage:
//
//	mirrorsync sync
//	mirrorsync sync --groups Piped,nitter --mode sequential
//	mirrorsync report
//
// See --help for all available options.
package main

func main() {
	Execute()
}
