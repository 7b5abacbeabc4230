package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/mirrorsync/internal/catalog"
	"github.com/nao1215/mirrorsync/internal/config"
	"github.com/spf13/cobra"
)

// errCatalogExists is returned when init would overwrite a catalog.
var errCatalogExists = errors.New("catalog file already exists (use --force to overwrite)")

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in catalog to catalog.yaml for editing",
		Long: `Init writes the built-in catalog into <output>/catalog.yaml. Later runs pick
that file up automatically, so services can be added or changed without a
rebuild.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			path, err := writeDefaultCatalog(cfg.OutputDir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing catalog file")
	return cmd
}

func writeDefaultCatalog(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.CatalogFileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", errCatalogExists, path)
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, catalog.DefaultYAML(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write catalog: %w", err)
	}
	return path, nil
}
