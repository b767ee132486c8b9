package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nvoss/subdoc/internal/config"
)

// debounceInterval coalesces bursts of file events (editors often write a
// file several times in quick succession) into one regeneration.
const debounceInterval = 300 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Regenerate the document whenever sources change",
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
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return runWatch(absRoot, title, cfg)
		},
	}

	cmd.Flags().StringVar(&title, "title", "Submission", "document title")
	return cmd
}

func runWatch(absRoot, title string, cfg *config.Settings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchTree(watcher, absRoot); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Initial generation before waiting for changes.
	if err := runGenerate(ctx, absRoot, title, cfg); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(cfg.Output)
	slog.Info("watching", "dir", absRoot)

	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Writing the document must not retrigger generation.
			if evPath, err := filepath.Abs(ev.Name); err == nil && evPath == absOutput {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watcher.Add(ev.Name)
				}
			}
			slog.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if debounce == nil {
				debounce = time.AfterFunc(debounceInterval, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(debounceInterval)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case <-fire:
			debounce = nil
			if err := runGenerate(ctx, absRoot, title, cfg); err != nil {
				// Keep watching: a transient scan failure (file mid-save)
				// should not end the session.
				slog.Warn("regeneration failed", "error", err)
			}
		}
	}
}

// watchTree registers the root and every subdirectory, skipping hidden
// directories the scanner would never admit anyway.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
