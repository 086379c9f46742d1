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
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration
	Autofix  bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Revalidate whenever record files change",
		Long: `Validate the record files under a directory, then validate again each
time a matching file is created, written, renamed or removed.

Changes are debounced: a burst of writes triggers one run. Runs are archived
and metrics written as configured. Stop with Ctrl-C.

Example:
  clavcheck watch ./records --debounce 1s --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 500*time.Millisecond, "quiet period before a change triggers a run")
	cmd.Flags().BoolVar(&opts.Autofix, "fix", false, "apply corrections on every run")

	return cmd
}

func runWatch(opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "cannot watch",
			&LoadError{Code: ErrCodeNotFound, Message: "not a directory", Path: dir}))
	}

	c, err := newChecker(opts.RootOptions, cmd.ErrOrStderr(), opts.Autofix)
	if err != nil {
		return reportCommandError(formatter, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		_, summary, err := c.check(ctx, []string{dir})
		if err != nil {
			// Keep watching: the next save may fix it.
			_ = reportCommandError(formatter, err)
			return err
		}
		return outputSummary(formatter, summary)
	}

	err = Watch(ctx, WatchConfig{
		Dir:      dir,
		Include:  c.cfg.Include,
		Debounce: opts.Debounce,
		Logger:   c.logger,
	}, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "watch failed", err)
	}
	return nil
}

// WatchConfig configures Watch.
type WatchConfig struct {
	Dir      string
	Include  []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch calls run once, then again after every debounced burst of changes
// to files under cfg.Dir that match cfg.Include. Errors from run are logged,
// not returned. Returns nil when ctx ends.
func Watch(ctx context.Context, cfg WatchConfig, run func(context.Context) error) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addWatchesRecursive(fsw, cfg.Dir, logger); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}
	logger.Info("watching record files", "dir", cfg.Dir, "debounce", cfg.Debounce, "include", cfg.Include)

	trigger := func() {
		if err := run(ctx); err != nil {
			logger.Warn("run failed", "error", err)
		}
	}
	trigger()

	timer := time.NewTimer(cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchesRecursive(fsw, event.Name, logger); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !matchesInclude(cfg.Dir, event.Name, cfg.Include) {
				continue
			}
			logger.Debug("record file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			trigger()
		}
	}
}

// addWatchesRecursive watches root and every directory below it, skipping
// hidden ones.
func addWatchesRecursive(fsw *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return err
		}
		logger.Debug("watching directory", "path", path)
		return nil
	})
}

// matchesInclude reports whether path, relative to dir, matches a glob.
func matchesInclude(dir, path string, include []string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
