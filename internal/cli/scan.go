package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvoss/subdoc/internal/config"
	"github.com/nvoss/subdoc/internal/scan"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Print the manifest (path, SHA-256, size) without executing anything",
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

			files, err := scan.Scan(absRoot, scan.Options{
				Extensions: cfg.Extensions,
				Excludes:   cfg.Excludes,
			})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			for _, f := range files {
				fmt.Fprintf(os.Stdout, "%s  %8d  %s\n", f.SHA256, f.Size, f.RelPath)
			}
			return nil
		},
	}
	return cmd
}
