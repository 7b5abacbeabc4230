// Package snapshot persists the last known domain list of every entry.
//
// Each entry owns a file pair under <root>/instances/<group path>/:
// <stem>.json holds the list as an indented JSON array and <stem>.txt
// holds the same domains one per line. Both files are replaced
// atomically through a temporary file and a rename, so readers never
// observe a partial write.
package snapshot
