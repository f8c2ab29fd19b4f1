package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/djellemah/philtre/internal/predicate"
)

// PredicatesResult is the JSON payload of the predicates command.
type PredicatesResult struct {
	Predicates []string `json:"predicates"`
	Containers []string `json:"containers"`
}

// NewPredicatesCommand creates the predicates command.
func NewPredicatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predicates",
		Short: "List the predicate suffixes filter keys may end with",
		Long: `List the predicate suffixes filter keys may end with.

Suffixes are listed in matching order, longest first. Container variants
apply to keys addressing a subkey, like "store[owner]".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredicates(rootOpts, cmd)
		},
	}

	return cmd
}

func runPredicates(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	r := predicate.Default

	result := PredicatesResult{
		Predicates: r.Names(),
		Containers: r.ContainerNames(),
	}

	var b strings.Builder
	b.WriteString("Predicates:\n")
	for _, name := range result.Predicates {
		b.WriteString("  " + name + "\n")
	}
	b.WriteString("Container predicates:\n")
	for _, name := range result.Containers {
		b.WriteString("  " + name + "\n")
	}
	return formatter.Success(strings.TrimSuffix(b.String(), "\n"), result)
}
