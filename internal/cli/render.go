package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/djellemah/philtre/internal/document"
	"github.com/djellemah/philtre/internal/expand"
	"github.com/djellemah/philtre/internal/filter"
	"github.com/djellemah/philtre/internal/query"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	ParamsOptions
	Strict    bool
	OrderMode string
	Prepared  bool
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	SQL     string        `json:"sql"`
	Args    []any         `json:"args,omitempty"`
	Places  []PlaceResult `json:"places"`
	Unknown []string      `json:"unknown,omitempty"`
}

// PlaceResult describes one placeholder visited during expansion.
type PlaceResult struct {
	Clause   string `json:"clause"`
	Name     string `json:"name"`
	Field    string `json:"field,omitempty"`
	Source   string `json:"source,omitempty"`
	Resolved bool   `json:"resolved"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Expand a query template with filter parameters and print SQL",
		Long: `Expand a query template with filter parameters and print SQL.

The template is a YAML or CUE document mapping clauses to nodes. Placeholders
("$name") in where and having become predicates, in order become order
directives, and in select become columns. Placeholders without a value vanish.

Filter values that no placeholder consumed are ANDed onto the query, or are
an error with --strict (exit code 1).

Example:
  philtre render people.yaml --set title_like=sir --set 'birth_year=[2011, 2012]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	opts.addDialectFlag(cmd)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when filter values match no placeholder")
	cmd.Flags().StringVar(&opts.OrderMode, "order-mode", "replace", "how unmatched order directives combine with template ordering (replace|append)")
	cmd.Flags().BoolVar(&opts.Prepared, "prepared", false, "emit bind parameters instead of inline values")

	return cmd
}

func runRender(opts *RenderOptions, templatePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := opts.checkDialect(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err, nil)
	}
	e, out, err := expandTemplate(formatter, templatePath, &opts.ParamsOptions, opts.Strict, opts.OrderMode)
	if err != nil {
		return err
	}

	r := query.NewRenderer(opts.Dialect)
	r.Prepared = opts.Prepared
	sql, args, err := r.SQL(out)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRender, err, nil)
	}

	places, err := e.Places()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}
	unknown, err := e.Unknown()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}

	result := RenderResult{
		SQL:     sql,
		Args:    args,
		Places:  make([]PlaceResult, 0, len(places)),
		Unknown: unknown,
	}
	for _, p := range places {
		result.Places = append(result.Places, PlaceResult{
			Clause:   string(p.Clause),
			Name:     p.Name,
			Field:    p.Field,
			Source:   p.Source,
			Resolved: p.Resolved,
		})
	}
	return formatter.Success(sql, result)
}

// expandTemplate loads the template and filter parameters and expands one
// with the other. Errors are already reported through formatter.
func expandTemplate(formatter *OutputFormatter, templatePath string, po *ParamsOptions, strict bool, orderMode string) (*expand.Expander, *query.Query, error) {
	mode, err := filter.ParseOrderMode(orderMode)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeUsage, err, nil)
	}

	tmpl, err := document.LoadTemplate(templatePath)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeDecode, err, nil)
	}
	params, err := po.load()
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeDecode, err, nil)
	}

	logger := formatter.Logger()
	logger.Debug("template loaded", "path", templatePath, "clauses", tmpl.Len())

	expandOpts := []expand.Option{expand.WithOrderMode(mode), expand.WithLogger(logger)}
	if strict {
		expandOpts = append(expandOpts, expand.Strict())
	}
	e := expand.New(params, expandOpts...)

	out, err := e.Expand(tmpl)
	if err != nil {
		return nil, nil, renderExpandError(formatter, err)
	}
	return e, out, nil
}

func renderExpandError(formatter *OutputFormatter, err error) error {
	switch {
	case expand.IsUnmatchedError(err):
		var details map[string]any
		var ee *expand.Error
		if errors.As(err, &ee) {
			details = map[string]any{"keys": ee.Keys, "predicates": ee.Predicates}
		}
		return formatter.Fail(ExitUnmatched, ErrCodeUnmatched, err, details)
	case expand.IsUnknownClauseError(err):
		return formatter.Fail(ExitCommandError, ErrCodeUnknownClause, err, nil)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
}
