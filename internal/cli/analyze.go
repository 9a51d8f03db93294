package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/skelc/internal/codegen"
	"github.com/roach88/skelc/internal/frontend"
	"github.com/roach88/skelc/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Registry string   // skeleton table replacing the built-in one
	Backends []string // backend names recorded in every manifest
	Output   string   // manifest file, or directory for several inputs
	DB       string   // manifest store path
	Jobs     int      // inputs analyzed concurrently
}

// AnalyzeResult holds the outcome of one analyze invocation.
type AnalyzeResult struct {
	Units  []UnitResult `json:"units"`
	Failed int          `json:"failed"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <inputs...>",
		Short: "Recognize skeleton instances and extract user functions",
		Long: `Analyze translation units and produce one manifest per unit.

Inputs are C++ sources or AST documents (.json, .yaml, .yml). Directories
are searched for supported files. Each unit is analyzed independently;
a fatal error in one unit does not stop the others.

Exit codes:
  0 - Every unit analyzed
  1 - One or more units aborted
  2 - Command error (bad flags, missing inputs, invalid registry)

Examples:
  skelc analyze main.cpp
  skelc analyze main.cpp --backend openmp --backend cuda -o main.manifest.json
  skelc analyze ./src --jobs 4 -o out/ --db runs.db
  skelc analyze unit.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "skeleton registry (.cue) replacing the built-in table")
	cmd.Flags().StringArrayVar(&opts.Backends, "backend", nil, "target backend (repeatable; default sequential)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "manifest output file, or directory for several inputs")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record manifests in this SQLite store")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 1, "number of inputs analyzed concurrently")

	return cmd
}

func runAnalyze(ctx context.Context, opts *AnalyzeOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Jobs < 1 {
		return commandError(formatter, ErrCodeBadFlag, fmt.Sprintf("--jobs must be at least 1, got %d", opts.Jobs))
	}

	p, inputs, closeStore, err := preparePipeline(formatter, opts.RootOptions, opts.Registry, opts.Backends, opts.Output, opts.DB, args, cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	defer func() { _ = p.logger.Sync() }()

	formatter.VerboseLog("Analyzing %d input(s) with %d job(s)", len(inputs), opts.Jobs)

	results := make([]UnitResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			results[i] = p.run(gctx, input)
			return nil
		})
	}
	_ = g.Wait()

	result := AnalyzeResult{Units: results}
	var firstErr *CLIError
	for _, r := range results {
		if r.Error != nil {
			result.Failed++
			if firstErr == nil {
				firstErr = r.Error
			}
		}
	}

	if opts.Format == "json" {
		if result.Failed == 0 {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, firstErr); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printUnit(formatter, r)
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("analysis failed for %d of %d input(s)", result.Failed, len(inputs)))
	}
	return nil
}

// preparePipeline resolves the flags shared by analyze and watch. On
// failure the error has already been reported through formatter.
func preparePipeline(formatter *OutputFormatter, root *RootOptions, registry string, backendNames []string,
	output, db string, args []string, cmd *cobra.Command) (*pipeline, []string, func(), error) {
	noop := func() {}

	skeletons, errs := LoadRegistry(registry)
	if len(errs) > 0 {
		return nil, nil, noop, commandError(formatter, errorCode(errs[0], ErrCodeGeneric), errs[0].Error())
	}
	formatter.VerboseLog("Registry %s with %d kind(s)", skeletons.Version(), len(skeletons.Entries()))

	backends, err := codegen.ParseBackends(backendNames)
	if err != nil {
		return nil, nil, noop, commandError(formatter, ErrCodeBadFlag, err.Error())
	}

	inputs, err := frontend.Expand(args)
	if err != nil {
		code := ErrCodeScanError
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, nil, noop, commandError(formatter, code, err.Error())
	}
	if len(inputs) == 0 {
		return nil, nil, noop, commandError(formatter, ErrCodeNoFiles, fmt.Sprintf("no supported inputs in %v", args))
	}

	outputs, err := assignOutputs(output, inputs)
	if err != nil {
		return nil, nil, noop, commandError(formatter, ErrCodeBadFlag, err.Error())
	}

	var st *store.Store
	closeStore := noop
	if db != "" {
		st, err = store.Open(db)
		if err != nil {
			return nil, nil, noop, commandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		closeStore = func() { _ = st.Close() }
	}

	p := newPipeline(skeletons, backends, st, newLogger(root, cmd.ErrOrStderr()))
	p.outputs = outputs
	return p, inputs, closeStore, nil
}
