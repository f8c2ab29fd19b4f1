package cli

import (
	"github.com/spf13/cobra"

	"github.com/djellemah/philtre/internal/query"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	ParamsOptions
}

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	SQL        string   `json:"sql"`
	Predicates []string `json:"predicates"`
	Order      []string `json:"order,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <table>",
		Short: "Apply filter parameters to SELECT * FROM <table>",
		Long: `Apply filter parameters to SELECT * FROM <table>.

Every valued parameter becomes a predicate, ANDed in parameter order. The
"order" parameter becomes the ORDER BY clause.

Example:
  philtre apply people --set name_like=an --set order=name_desc`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	opts.addDialectFlag(cmd)

	return cmd
}

func runApply(opts *ApplyOptions, table string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := opts.checkDialect(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err, nil)
	}
	params, err := opts.load()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDecode, err, nil)
	}
	formatter.Logger().Debug("applying filter", "table", table, "keys", params.ValuedKeys())

	out := params.Apply(query.From(table))
	sql, _, err := query.NewRenderer(opts.Dialect).SQL(out)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRender, err, nil)
	}

	result := ApplyResult{
		SQL:        sql,
		Predicates: params.ValuedKeys(),
	}
	for _, d := range params.Order() {
		result.Order = append(result.Order, d.String())
	}
	if result.Predicates == nil {
		result.Predicates = []string{}
	}
	return formatter.Success(sql, result)
}
