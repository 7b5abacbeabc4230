package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/mirrorsync/internal/config"
	"github.com/nao1215/mirrorsync/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync runs",
		Long: `History lists previous sync runs from the history database, newest first.
With --entry it shows the stored outcomes of one entry instead.

Examples:
  mirrorsync history
  mirrorsync history --entry youtube/piped/onion --limit 5`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().String("history-dir", "", "Directory of the run history database (default: XDG data dir)")
	cmd.Flags().IntP("limit", "n", 10, "Maximum rows to show (0 = all)")
	cmd.Flags().String("entry", "", "Show outcomes of this entry ID (<group>/<network>)")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = config.XDGDataDir()
	}
	limit, _ := cmd.Flags().GetInt("limit")
	entryID, _ := cmd.Flags().GetString("entry")

	db, err := history.Open(cfg.HistoryDir, history.Options{})
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if entryID != "" {
		records, err := db.EntryHistory(cmd.Context(), entryID, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No outcomes recorded for %s.\n", entryID)
			return nil
		}
		renderEntryHistory(out, records)
		return nil
	}

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	renderRuns(out, runs)
	return nil
}

func renderRuns(w io.Writer, runs []history.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Mode", "Entries", "Changed", "Failed"})
	for _, r := range runs {
		duration := "running"
		if r.Finished() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			duration,
			r.Mode,
			r.Entries,
			r.Changed,
			r.Failed,
		})
	}
	t.Render()
}

func renderEntryHistory(w io.Writer, records []history.EntryRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Outcome", "Domains", "Attempts", "Duration", "Error"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Outcome,
			r.Domains,
			r.Attempts,
			r.Duration.Round(time.Millisecond).String(),
			r.Error,
		})
	}
	t.Render()
}
