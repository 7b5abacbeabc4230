package config

import (
	"errors"
	"os"
	"path/filepath"
)

// CatalogFileName is the catalog file looked up when none is given.
const CatalogFileName = "catalog.yaml"

// ErrCatalogNotFound is returned when an explicitly given catalog file
// does not exist.
var ErrCatalogNotFound = errors.New("catalog file not found")

// FindCatalogFile resolves the catalog to load, in this order:
//  1. explicit, which must exist
//  2. catalog.yaml in the output directory
//  3. catalog.yaml in the XDG config directory
//
// It returns "" with a nil error when nothing is found, meaning the
// built-in catalog applies.
func (c *Config) FindCatalogFile() (string, error) {
	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); err != nil {
			if os.IsNotExist(err) {
				return "", ErrCatalogNotFound
			}
			return "", err
		}
		return c.CatalogPath, nil
	}

	for _, dir := range []string{c.OutputDir, XDGConfigDir()} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, CatalogFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}
