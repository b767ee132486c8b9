package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvoss/subdoc/internal/config"
	"github.com/nvoss/subdoc/internal/history"
	"github.com/nvoss/subdoc/internal/scan"
)

// DriftError indicates the directory no longer matches the recorded
// manifest. Mapped to a nonzero exit by main.
type DriftError struct {
	Changed, Added, Removed int
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("manifest drift: %d changed, %d added, %d removed", e.Changed, e.Added, e.Removed)
}

func newVerifyCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "verify [root]",
		Short: "Re-scan a directory and compare against a recorded manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolve root: %w", err)
			}

			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.HistoryDB == "" {
				return fmt.Errorf("no history_db configured; nothing to verify against")
			}

			return runVerify(cmd.Context(), absRoot, runID, cfg)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run ID to verify against (default: latest for this root)")
	return cmd
}

func runVerify(ctx context.Context, absRoot, runID string, cfg *config.Settings) error {
	store, err := history.Open(cfg.HistoryDB, slog.Default())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	if runID == "" {
		runID, err = store.LatestRunID(ctx, absRoot)
		if err != nil {
			return err
		}
		if runID == "" {
			return fmt.Errorf("no recorded run for %s", absRoot)
		}
	}

	recorded, err := store.Manifest(ctx, runID)
	if err != nil {
		return err
	}

	files, err := scan.Scan(absRoot, scan.Options{
		Extensions: cfg.Extensions,
		Excludes:   cfg.Excludes,
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	current := make(map[string]string, len(files))
	for _, f := range files {
		current[f.RelPath] = f.SHA256
	}

	var drift DriftError
	seen := make(map[string]struct{}, len(recorded))
	for _, rec := range recorded {
		seen[rec.RelPath] = struct{}{}
		sum, ok := current[rec.RelPath]
		switch {
		case !ok:
			drift.Removed++
			fmt.Fprintf(os.Stdout, "  removed  %s\n", rec.RelPath)
		case sum != rec.SHA256:
			drift.Changed++
			fmt.Fprintf(os.Stdout, "  changed  %s\n", rec.RelPath)
		}
	}
	for _, f := range files {
		if _, ok := seen[f.RelPath]; !ok {
			drift.Added++
			fmt.Fprintf(os.Stdout, "  added    %s\n", f.RelPath)
		}
	}

	if drift.Changed+drift.Added+drift.Removed > 0 {
		return &drift
	}
	fmt.Fprintf(os.Stdout, "manifest verified: %d files match run %s\n", len(recorded), runID)
	return nil
}
