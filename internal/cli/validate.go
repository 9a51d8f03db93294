package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// RegistryProblem is one reason a registry table was rejected.
type RegistryProblem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Version string            `json:"version,omitempty"`
	Kinds   int               `json:"kinds,omitempty"`
	Errors  []RegistryProblem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <registry.cue>",
		Short: "Validate a skeleton registry table",
		Long: `Validate a skeleton registry table without analyzing anything.

The table is unified with the registry schema, then checked for the
rules the schema cannot express: supported version, one role per arity
component, paired kinds with exactly two components, unique factories.
Every problem is reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, errs := LoadRegistry(path)
	if len(errs) == 1 {
		// Unreadable tables are command errors, not validation failures.
		code := errorCode(errs[0], ErrCodeGeneric)
		if code == ErrCodeNotFound || code == ErrCodeLoadFailed {
			return commandError(formatter, code, errorMessage(errs[0]))
		}
	}

	if len(errs) > 0 {
		problems := make([]RegistryProblem, 0, len(errs))
		for _, err := range errs {
			p := RegistryProblem{Code: errorCode(err, ErrCodeGeneric), Message: errorMessage(err)}
			var loadErr *LoadError
			if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
				p.Line = loadErr.Pos.Line()
			}
			problems = append(problems, p)
		}
		return outputValidationErrors(formatter, problems)
	}

	formatter.VerboseLog("Registry digest %s", reg.Digest())

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			Version: reg.Version(),
			Kinds:   len(reg.Entries()),
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ Registry valid (version %s, %d kind(s))\n", reg.Version(), len(reg.Entries()))
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []RegistryProblem) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Failure(result, &CLIError{Code: errs[0].Code, Message: errs[0].Message}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
