package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/frontend"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Registry string
	Backends []string
	Output   string
	DB       string
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <inputs...>",
		Short: "Re-analyze inputs whenever they change",
		Long: `Analyze the inputs once, then re-analyze each one when it is written.

Directories are watched for new or changed supported files. Changes
arriving within the debounce window are analyzed together. Runs until
interrupted.

Examples:
  skelc watch main.cpp
  skelc watch ./src --backend openmp -o out/ --db runs.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "skeleton registry (.cue) replacing the built-in table")
	cmd.Flags().StringArrayVar(&opts.Backends, "backend", nil, "target backend (repeatable; default sequential)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "manifest output file, or directory for several inputs")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record manifests in this SQLite store")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 100*time.Millisecond, "quiet period before re-analysis")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Debounce <= 0 {
		return commandError(formatter, ErrCodeBadFlag, fmt.Sprintf("--debounce must be positive, got %s", opts.Debounce))
	}

	p, inputs, closeStore, err := preparePipeline(formatter, opts.RootOptions, opts.Registry, opts.Backends, opts.Output, opts.DB, args, cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	defer func() { _ = p.logger.Sync() }()

	scope, err := newWatchScope(args, inputs)
	if err != nil {
		return commandError(formatter, ErrCodeScanError, err.Error())
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("creating watcher: %v", err))
	}
	defer w.Close()

	for _, dir := range scope.watchDirs {
		if err := w.Add(dir); err != nil {
			return commandError(formatter, ErrCodeScanError, fmt.Sprintf("watching %s: %v", dir, err))
		}
		formatter.VerboseLog("Watching %s", dir)
	}

	report := func(input string) {
		r := p.run(ctx, input)
		if ctx.Err() != nil {
			return
		}
		if opts.Format == "json" {
			if r.Error != nil {
				_ = formatter.Failure(r, r.Error)
			} else {
				_ = formatter.Success(r)
			}
			return
		}
		printUnit(formatter, r)
	}

	for _, input := range inputs {
		report(input)
	}
	if opts.Format != "json" {
		fmt.Fprintf(formatter.Writer, "watching %d input(s)\n", len(inputs))
	}

	return watchLoop(ctx, w.Events, w.Errors, opts.Debounce, scope.match, report, p.logger)
}

// watchScope decides which file events concern the watched inputs.
type watchScope struct {
	files     map[string]bool // explicit file inputs
	roots     []string        // directory arguments
	watchDirs []string        // directories registered with the watcher
}

func newWatchScope(args, inputs []string) (*watchScope, error) {
	s := &watchScope{files: make(map[string]bool)}
	dirs := make(map[string]bool)

	for _, arg := range args {
		clean := filepath.Clean(arg)
		info, err := os.Stat(clean)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			s.files[clean] = true
			dirs[filepath.Dir(clean)] = true
			continue
		}

		s.roots = append(s.roots, clean)
		// fsnotify does not recurse.
		err = filepath.WalkDir(clean, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != clean && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs[path] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for _, in := range inputs {
		if !s.files[in] && !s.underRoot(in) {
			s.files[in] = true
			dirs[filepath.Dir(in)] = true
		}
	}

	for d := range dirs {
		s.watchDirs = append(s.watchDirs, d)
	}
	slices.Sort(s.watchDirs)
	return s, nil
}

func (s *watchScope) underRoot(path string) bool {
	for _, root := range s.roots {
		if root == "." && !filepath.IsAbs(path) {
			return true
		}
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// match reports whether a change to path should trigger re-analysis.
func (s *watchScope) match(path string) bool {
	clean := filepath.Clean(path)
	if s.files[clean] {
		return true
	}
	return frontend.Supported(clean) && s.underRoot(clean)
}

// watchLoop collects matching write and create events and hands each
// changed path to handle once the debounce window has passed without
// further changes. Returns when ctx is done or the watcher closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	debounce time.Duration, match func(string) bool, handle func(string), logger *zap.Logger) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !match(ev.Name) {
				continue
			}
			logger.Debug("input changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			clear(pending)
			slices.Sort(changed)
			for _, path := range changed {
				logger.Info("re-analyzing", zap.String("path", path))
				handle(path)
			}
		}
	}
}
