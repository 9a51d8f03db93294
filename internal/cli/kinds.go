package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/skelc/internal/skeleton"
)

// KindInfo describes one registry entry.
type KindInfo struct {
	Template  string   `json:"template"`
	Kind      string   `json:"kind"`
	Roles     []string `json:"roles"`
	Arity     []string `json:"arity"`
	Paired    bool     `json:"paired"`
	Factories []string `json:"factories"`
}

// KindsResult is the registry table as printed by kinds.
type KindsResult struct {
	Version  string     `json:"version"`
	Digest   string     `json:"digest"`
	Kinds    []KindInfo `json:"kinds"`
	Reserved []string   `json:"reserved_types"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	var registry string

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "Print the skeleton registry table",
		Long: `Print every skeleton kind the analysis recognizes: its callback
roles, how the arity vector is derived (targN reads template argument N,
a number is fixed) and the factories the C++ front-end maps to it.

Examples:
  skelc kinds
  skelc kinds --registry custom.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(rootOpts, registry, cmd)
		},
	}

	cmd.Flags().StringVar(&registry, "registry", "", "skeleton registry (.cue) replacing the built-in table")
	return cmd
}

func runKinds(opts *RootOptions, registry string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, errs := LoadRegistry(registry)
	if len(errs) > 0 {
		return commandError(formatter, errorCode(errs[0], ErrCodeGeneric), errs[0].Error())
	}

	result := describeRegistry(reg)
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "registry %s\n\n", result.Version)
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tROLES\tARITY\tPAIRED\tFACTORIES")
	for _, k := range result.Kinds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			k.Template,
			strings.Join(k.Roles, ","),
			strings.Join(k.Arity, ","),
			k.Paired,
			strings.Join(k.Factories, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\nreserved types: %s\n", strings.Join(result.Reserved, ", "))
	return nil
}

func describeRegistry(reg *skeleton.Registry) KindsResult {
	result := KindsResult{
		Version:  reg.Version(),
		Digest:   reg.Digest(),
		Kinds:    []KindInfo{},
		Reserved: reg.ReservedTypes(),
	}
	for _, e := range reg.Entries() {
		arity := make([]string, len(e.Arity))
		for i, c := range e.Arity {
			arity[i] = c.String()
		}
		result.Kinds = append(result.Kinds, KindInfo{
			Template:  e.Template,
			Kind:      string(e.Kind),
			Roles:     e.Roles,
			Arity:     arity,
			Paired:    e.Paired,
			Factories: e.Factories,
		})
	}
	return result
}
