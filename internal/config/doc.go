// Package config holds the runtime settings of a mirrorsync run: their
// defaults, validation, environment overrides and the lookup of the
// catalog file.
package config
