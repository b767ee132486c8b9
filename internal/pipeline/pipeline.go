// Package pipeline orchestrates scanner output through the runner registry
// and the executor, one file at a time, producing the ordered (file, result)
// pairs formatters consume.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nvoss/subdoc/internal/execute"
	"github.com/nvoss/subdoc/internal/runner"
	"github.com/nvoss/subdoc/internal/scan"
)

// Pair binds one scanned file to its execution outcome. Formatters borrow
// pairs; nothing mutates them after Run returns.
type Pair struct {
	File   scan.SourceFile
	Result execute.Result
}

// Options is the execution policy for one run.
type Options struct {
	Enabled  bool
	Timeout  time.Duration
	Stdin    execute.StdinSource
	Registry *runner.Registry
	// OnFile, when set, is called before each file is processed. Used by
	// the terminal reporter; never by formatters.
	OnFile func(file scan.SourceFile)
}

// Run processes files sequentially in scan order. Per-file failures of any
// kind — nonzero exit, timeout, launch error, missing runner — are recorded
// as results and never abort the batch, so the document shows every file's
// status including the broken ones.
func Run(ctx context.Context, files []scan.SourceFile, opts Options) []Pair {
	pairs := make([]Pair, 0, len(files))

	for _, file := range files {
		if opts.OnFile != nil {
			opts.OnFile(file)
		}
		pairs = append(pairs, Pair{File: file, Result: runOne(ctx, file, opts)})
	}

	return pairs
}

func runOne(ctx context.Context, file scan.SourceFile, opts Options) execute.Result {
	if !opts.Enabled {
		return execute.SkippedResult("execution disabled")
	}

	tmpl, ok := opts.Registry.Resolve(file.Language)
	if !ok {
		slog.Debug("no runner", "file", file.RelPath, "language", file.Language)
		return execute.SkippedResult(fmt.Sprintf("no runner for language %q", file.Language))
	}

	plan, err := tmpl.Plan(file)
	if err != nil {
		// Could not even stage the invocation (e.g. temp dir creation
		// failed). Recorded per file; the batch continues.
		res := execute.SkippedResult(fmt.Sprintf("plan commands: %v", err))
		res.Stderr = err.Error()
		return res
	}

	slog.Debug("executing file", "file", file.RelPath, "language", file.Language, "steps", len(plan.Invocations))

	// Working directory is the file's containing directory so relative-path
	// file I/O in the executed code behaves as its author intended.
	return execute.Execute(ctx, plan.Invocations, execute.Options{
		Stdin:       opts.Stdin,
		Timeout:     opts.Timeout,
		WorkDir:     filepath.Dir(file.Path),
		ArtifactDir: plan.ArtifactDir,
	})
}
