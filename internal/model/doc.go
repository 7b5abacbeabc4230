// Package model defines the data types shared by mirrorsync components:
// networks, catalog entries and groups, the closed set of extraction
// strategies, and per-entry sync results.
package model
