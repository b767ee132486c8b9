// Package render turns pipeline output into the submission document.
// Renderers borrow pairs: they never re-hash, never re-execute.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nvoss/subdoc/internal/execute"
	"github.com/nvoss/subdoc/internal/pipeline"
	"github.com/nvoss/subdoc/internal/scan"
)

// languageFences maps language tags to fenced-code-block info strings.
var languageFences = map[string]string{
	scan.LangPython: "python",
	scan.LangJava:   "java",
}

// Markdown writes the full submission document: title, one section per file
// with source and execution output, and the integrity manifest. Write errors
// surface once, on flush.
func Markdown(w io.Writer, title, root string, pairs []pipeline.Pair) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n\n", title)
	fmt.Fprintf(bw, "Root: `%s`  \n", root)
	fmt.Fprintf(bw, "Generated: %s\n\n", time.Now().Format(time.RFC1123))

	for _, p := range pairs {
		fileSection(bw, p)
	}
	manifestSection(bw, pairs)

	return bw.Flush()
}

func fileSection(w io.Writer, p pipeline.Pair) {
	fmt.Fprintf(w, "## %s\n\n", p.File.RelPath)

	fence := languageFences[p.File.Language]
	fmt.Fprintf(w, "```%s\n%s```\n\n", fence, ensureNewline(string(p.File.Content)))

	res := p.Result
	switch {
	case res.Skipped:
		fmt.Fprintf(w, "*Not executed: %s.*\n\n", res.SkipReason)
	case res.TimedOut:
		fmt.Fprintf(w, "**Timed out after %s.** Partial output below.\n\n", res.Duration.Round(time.Millisecond))
		outputBlocks(w, res)
	default:
		fmt.Fprintf(w, "Exit code %d, %s.\n\n", res.ExitCode, res.Duration.Round(time.Millisecond))
		outputBlocks(w, res)
	}
}

func outputBlocks(w io.Writer, res execute.Result) {
	if len(res.Command) > 0 {
		fmt.Fprintf(w, "Command: `%s`\n\n", strings.Join(res.Command, " "))
	}
	if res.Stdout != "" {
		fmt.Fprintf(w, "Output:\n\n```\n%s```\n\n", ensureNewline(res.Stdout))
	}
	if res.Stderr != "" {
		fmt.Fprintf(w, "Errors:\n\n```\n%s```\n\n", ensureNewline(res.Stderr))
	}
	if res.Stdout == "" && res.Stderr == "" {
		fmt.Fprint(w, "*(no output)*\n\n")
	}
}

func manifestSection(w io.Writer, pairs []pipeline.Pair) {
	fmt.Fprint(w, "## Integrity\n\n")
	fmt.Fprint(w, "| File | SHA-256 | Size |\n")
	fmt.Fprint(w, "|---|---|---|\n")
	for _, p := range pairs {
		fmt.Fprintf(w, "| %s | `%s` | %d |\n", p.File.RelPath, p.File.SHA256, p.File.Size)
	}
	fmt.Fprint(w, "\n")
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
