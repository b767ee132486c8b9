package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvoss/subdoc/internal/config"
	"github.com/nvoss/subdoc/internal/history"
	"github.com/nvoss/subdoc/internal/pipeline"
	"github.com/nvoss/subdoc/internal/render"
	"github.com/nvoss/subdoc/internal/reporter"
	"github.com/nvoss/subdoc/internal/runner"
	"github.com/nvoss/subdoc/internal/scan"
)

func newGenerateCmd() *cobra.Command {
	var (
		output    string
		title     string
		noExec    bool
		timeout   time.Duration
		stdinMode string
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate [root]",
		Short: "Scan, execute and render a submission document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("output") {
				cfg.Output = output
			}
			if cmd.Flags().Changed("no-exec") && noExec {
				cfg.Execution.Enabled = false
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Execution.Timeout = timeout
			}
			if cmd.Flags().Changed("stdin") {
				cfg.Execution.Stdin = stdinMode
			}
			if cmd.Flags().Changed("input-file") {
				cfg.Execution.InputFile = inputFile
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return runGenerate(cmd.Context(), root, title, cfg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultOutput, "output document path")
	cmd.Flags().StringVar(&title, "title", "Submission", "document title")
	cmd.Flags().BoolVar(&noExec, "no-exec", false, "skip execution; document carries not-executed results")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "wall-clock timeout per file")
	cmd.Flags().StringVar(&stdinMode, "stdin", "", "stdin strategy: none or file")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "input file streamed to each program's stdin (stdin=file)")

	return cmd
}

func runGenerate(ctx context.Context, root, title string, cfg *config.Settings) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	stdin, err := cfg.StdinSource()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	files, err := scan.Scan(absRoot, scan.Options{
		Extensions: cfg.Extensions,
		Excludes:   cfg.Excludes,
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	rep := reporter.NewTextReporter(os.Stdout, isTerminal())
	rep.PrintHeader(absRoot, len(files))

	pairs := pipeline.Run(ctx, files, pipeline.Options{
		Enabled:  cfg.Execution.Enabled,
		Timeout:  cfg.Execution.Timeout,
		Stdin:    stdin,
		Registry: runner.NewRegistry(cfg.Overrides),
		OnFile:   rep.PrintFile,
	})

	out, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render.Markdown(out, title, absRoot, pairs); err != nil {
		out.Close()
		return fmt.Errorf("render document: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	rep.PrintSummary(pairs)
	fmt.Fprintf(os.Stdout, "\nDocument: %s\n", cfg.Output)

	if cfg.HistoryDB != "" {
		if err := recordHistory(ctx, cfg.HistoryDB, absRoot, pairs); err != nil {
			// History is bookkeeping, not part of the manifest guarantee.
			slog.Warn("record history failed", "error", err)
		}
	}

	// Per-file failures and timeouts are data in the document, not pipeline
	// errors; the run succeeded if the manifest and results were produced.
	return nil
}

func recordHistory(ctx context.Context, dbPath, root string, pairs []pipeline.Pair) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	store, err := history.Open(dbPath, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runID, err := store.RecordRun(ctx, root, pairs)
	if err != nil {
		return err
	}
	slog.Debug("run recorded", "run_id", runID)
	return nil
}
