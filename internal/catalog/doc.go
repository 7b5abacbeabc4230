// Package catalog reads the YAML description of tracked services into a
// model.Catalog. A default catalog is embedded in the binary and used when
// no catalog file is found.
package catalog
