// Package reporter prints run progress and a summary to the terminal. It is
// presentation only: it reads pairs, never mutates them.
package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nvoss/subdoc/internal/pipeline"
	"github.com/nvoss/subdoc/internal/scan"
)

// TextReporter writes human-readable progress to a writer. color enables
// the lipgloss styles; off, everything is plain text.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a reporter. If w is nil it defaults to os.Stdout.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(root string, files int) {
	fmt.Fprintf(r.w, "subdoc — %d files in %s\n\n", files, root)
}

// PrintFile writes the per-file progress line emitted before execution.
func (r *TextReporter) PrintFile(file scan.SourceFile) {
	fmt.Fprintf(r.w, "  %s %s\n", r.style(dimStyle, "»"), file.RelPath)
}

// PrintSummary writes the per-file outcomes and totals.
func (r *TextReporter) PrintSummary(pairs []pipeline.Pair) {
	var ok, failed, timedOut, skipped int

	fmt.Fprintln(r.w)
	for _, p := range pairs {
		res := p.Result
		switch {
		case res.Skipped:
			skipped++
			fmt.Fprintf(r.w, "  %s %-40s (%s)\n", r.style(warnStyle, "-"), p.File.RelPath, res.SkipReason)
		case res.TimedOut:
			timedOut++
			fmt.Fprintf(r.w, "  %s %-40s timed out after %s\n", r.style(failStyle, "✗"), p.File.RelPath, res.Duration.Round(time.Millisecond))
		case res.ExitCode != 0:
			failed++
			fmt.Fprintf(r.w, "  %s %-40s exit %d\n", r.style(failStyle, "✗"), p.File.RelPath, res.ExitCode)
		default:
			ok++
			fmt.Fprintf(r.w, "  %s %-40s %s\n", r.style(doneStyle, "✓"), p.File.RelPath, res.Duration.Round(time.Millisecond))
		}
	}

	fmt.Fprintf(r.w, "\n%d ok, %d failed, %d timed out, %d skipped\n", ok, failed, timedOut, skipped)
}
