package main

import (
	"fmt"

	"github.com/nao1215/mirrorsync/internal/report"
	"github.com/nao1215/mirrorsync/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Regenerate the aggregate reports from existing snapshots",
		Long: `Report rebuilds instances/<group>/ReadMe.MD, instances/all.json and
instances/all.md from the snapshots already on disk without fetching anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cmd.ErrOrStderr(), cfg)

			cat, _, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			store := snapshot.NewFileStore(cfg.OutputDir)
			if err := report.NewGenerator(store, report.WithLogger(logger)).WriteAll(cat); err != nil {
				return fmt.Errorf("failed to write reports: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reports written to %s\n", store.InstancesRoot())
			return nil
		},
	}
}
