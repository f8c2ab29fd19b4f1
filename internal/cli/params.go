package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/djellemah/philtre/internal/document"
	"github.com/djellemah/philtre/internal/filter"
	"github.com/djellemah/philtre/internal/query"
)

// ParamsOptions holds the flags that build filter parameters.
type ParamsOptions struct {
	File    string
	Set     []string
	Dialect string
}

func (o *ParamsOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.File, "params", "p", "", "filter parameters file (.yaml, .yml, .json or .cue)")
	cmd.Flags().StringArrayVar(&o.Set, "set", nil, "filter parameter as key=value (repeatable, overrides --params)")
}

func (o *ParamsOptions) addDialectFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Dialect, "dialect", query.DefaultDialect, fmt.Sprintf("SQL dialect %v (pattern predicates render as REGEXP outside postgres; SQLite needs a regexp() function)", query.Dialects))
}

// load reads the params file, if any, then applies --set assignments in
// order.
func (o *ParamsOptions) load() (*filter.Params, error) {
	params := filter.New(nil)
	if o.File != "" {
		p, err := document.LoadParams(o.File)
		if err != nil {
			return nil, err
		}
		params = p
	}

	for _, s := range o.Set {
		pair, err := document.ParseSet(s)
		if err != nil {
			return nil, err
		}
		params.Set(pair.Key, pair.Value)
	}
	return params, nil
}

func (o *ParamsOptions) checkDialect() error {
	if !slices.Contains(query.Dialects, o.Dialect) {
		return fmt.Errorf("invalid dialect %q: must be one of %v", o.Dialect, query.Dialects)
	}
	return nil
}
