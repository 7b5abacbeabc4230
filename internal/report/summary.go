package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/mirrorsync/internal/model"
)

// SummaryWriter prints the results of a sync run for the terminal.
type SummaryWriter struct {
	output io.Writer

	// verbose lists unchanged entries too.
	verbose bool
}

// SummaryOption configures a SummaryWriter.
type SummaryOption func(*SummaryWriter)

// WithVerbose lists every entry instead of only changed and failed ones.
func WithVerbose(verbose bool) SummaryOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryOption) *SummaryWriter {
	w := &SummaryWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints results and returns the number of bytes written.
func (w *SummaryWriter) Write(results []model.SyncResult, elapsed time.Duration) (int, error) {
	var sb strings.Builder

	var changed, failed int
	for _, r := range results {
		switch {
		case r.Failed():
			failed++
		case r.Changed:
			changed++
		}
	}

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("SYNC SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Entries:   %d\n", len(results))
	fmt.Fprintf(&sb, "Changed:   %d\n", changed)
	fmt.Fprintf(&sb, "Unchanged: %d\n", len(results)-changed-failed)
	fmt.Fprintf(&sb, "Failed:    %d\n", failed)
	fmt.Fprintf(&sb, "Elapsed:   %s\n", elapsed.Round(time.Millisecond))

	w.writeSection(&sb, "Changed", results, func(r model.SyncResult) bool {
		return !r.Failed() && r.Changed
	})
	w.writeSection(&sb, "Failed", results, model.SyncResult.Failed)
	if w.verbose {
		w.writeSection(&sb, "Unchanged", results, func(r model.SyncResult) bool {
			return !r.Failed() && !r.Changed
		})
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SummaryWriter) writeSection(sb *strings.Builder, title string, results []model.SyncResult, keep func(model.SyncResult) bool) {
	var lines []string
	for _, r := range results {
		if !keep(r) {
			continue
		}
		line := fmt.Sprintf("  %-40s %4d domains", r.EntryID, r.Domains)
		if r.Failed() {
			line = fmt.Sprintf("  %-40s after %d attempt(s): %v", r.EntryID, r.Attempts, r.Err)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString(":\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
}
