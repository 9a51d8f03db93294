package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/skelc/internal/codegen"
	"github.com/roach88/skelc/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	DB     string
	Verify bool
}

// RunInfo is one stored run as listed by show.
type RunInfo struct {
	ID              string   `json:"id"`
	Seq             int64    `json:"seq"`
	Unit            string   `json:"unit"`
	RegistryVersion string   `json:"registry_version"`
	Backends        []string `json:"backends"`
	Instances       int      `json:"instances"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show --db <path> [run]",
		Short: "List stored runs or print one manifest",
		Long: `Inspect a manifest store written by analyze --db.

Without a run reference, lists every stored run in the order it was
recorded. A run is referenced by its sequence number, its full id or a
unique id prefix.

Examples:
  skelc show --db runs.db
  skelc show --db runs.db 3
  skelc show --db runs.db 9f2c --verify --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return runShow(cmd.Context(), opts, ref, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the manifest store (required)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "check that the stored run still matches its fingerprint")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, ref string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create a missing database.
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	defer st.Close()

	if ref == "" {
		return listRuns(ctx, formatter, st)
	}
	return showRun(ctx, formatter, st, ref, opts.Verify)
}

func listRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	infos := make([]RunInfo, len(runs))
	for i, r := range runs {
		infos[i] = RunInfo(r)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"runs": infos})
	}

	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tUNIT\tINSTANCES\tBACKENDS")
	for _, r := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.Seq, shortID(r.ID), r.Unit, r.Instances, strings.Join(r.Backends, ","))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, ref string, verify bool) error {
	run, err := st.FindRun(ctx, ref)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("no run matches %q", ref))
	case errors.Is(err, store.ErrAmbiguousRun):
		return commandError(formatter, ErrCodeAmbiguous, fmt.Sprintf("run reference %q is ambiguous", ref))
	case err != nil:
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	if verify {
		if err := st.Verify(ctx, run.ID); err != nil {
			var mismatch *store.FingerprintMismatchError
			if errors.As(err, &mismatch) {
				_ = formatter.Error(ErrCodeMismatch, err.Error(), nil)
				return NewExitError(ExitFailure, err.Error())
			}
			return commandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		formatter.VerboseLog("Run %s verified", run.ID)
	}

	m, err := st.ReadManifest(ctx, run.ID)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"run":      RunInfo(run),
			"verified": verify,
			"manifest": m,
		})
	}

	fmt.Fprintf(formatter.Writer, "run %d %s\n", run.Seq, run.ID)
	if verify {
		fmt.Fprintln(formatter.Writer, "✓ fingerprint verified")
	}
	return codegen.WriteDigest(formatter.Writer, m)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
