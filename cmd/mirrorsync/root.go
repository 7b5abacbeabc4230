package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mirrorsync.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirrorsync",
		Short: "Keep a directory of front-end mirror instances up to date",
		Long: `mirrorsync maintains instances/<service>/<network>.json snapshots of publicly
reachable mirrors (clearnet, onion, i2p, loki) for alternative front-ends.

Settings come from flags, then MIRRORSYNC_* environment variables (a .env or
.env.local file in the working directory is loaded first), then defaults.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("output", "o", "", "Output directory holding instances/ (default \".\")")
	cmd.PersistentFlags().StringP("catalog", "c", "", "Catalog file (default: catalog.yaml in the output or config directory, else built-in)")

	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
