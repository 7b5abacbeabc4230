package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/mirrorsync/internal/domain"
	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/snapshot"
	"github.com/spf13/cobra"
)

// errInvalidSnapshots is returned when --snapshots finds invalid domains.
var errInvalidSnapshots = errors.New("snapshots contain invalid domains")

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog and optionally the stored snapshots",
		Long: `Validate parses the catalog and checks every entry: one strategy, a known
network, compilable patterns, known projections and header parents that exist
in an earlier tier.

With --snapshots every stored domain is also checked for IDNA conformance and,
for .onion names, the v3 checksum.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
	cmd.Flags().Bool("snapshots", false, "Also validate the domains stored in snapshot files")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd.ErrOrStderr(), cfg)

	cat, source, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog OK (%s): %d groups, %d entries, tiers %v\n",
		source, len(cat.Groups), len(cat.Entries()), cat.Tiers())
	if cfg.Verbose {
		for _, e := range cat.Entries() {
			fmt.Fprintf(out, "  %-40s %-14s tier %d\n", e.ID(), e.Strategy.Kind(), e.Priority)
		}
	}

	checkSnapshots, _ := cmd.Flags().GetBool("snapshots")
	if !checkSnapshots {
		return nil
	}
	bad, err := validateSnapshots(out, snapshot.NewFileStore(cfg.OutputDir), cat)
	if err != nil {
		return err
	}
	if bad > 0 {
		return fmt.Errorf("%w: %d", errInvalidSnapshots, bad)
	}
	fmt.Fprintln(out, "Snapshots OK")
	return nil
}

// validateSnapshots prints every invalid stored domain and returns how
// many were found. Missing snapshots are skipped.
func validateSnapshots(out io.Writer, store *snapshot.FileStore, cat *model.Catalog) (int, error) {
	bad := 0
	for _, e := range cat.Entries() {
		domains, ok, err := store.Load(e)
		if err != nil {
			return bad, err
		}
		if !ok {
			continue
		}
		var problems []string
		for _, d := range domains {
			if err := domain.Validate(d); err != nil {
				problems = append(problems, fmt.Sprintf("    %s: %v", d, err))
			}
		}
		if len(problems) > 0 {
			bad += len(problems)
			fmt.Fprintf(out, "  %s:\n%s\n", e.ID(), strings.Join(problems, "\n"))
		}
	}
	return bad, nil
}
