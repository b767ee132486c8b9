package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvoss/subdoc/internal/config"
	"github.com/nvoss/subdoc/internal/history"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.HistoryDB == "" {
				return fmt.Errorf("no history_db configured")
			}

			store, err := history.Open(cfg.HistoryDB, slog.Default())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stdout, "no runs recorded")
				return nil
			}

			for _, r := range runs {
				fmt.Fprintf(os.Stdout, "%s  %s  %-40s %d files, %d failed, %d timed out, %d skipped\n",
					r.ID[:8], r.CreatedAt.Local().Format(time.DateTime), r.Root,
					r.Files, r.Failed, r.TimedOut, r.Skipped)
			}
			return nil
		},
	}
}
