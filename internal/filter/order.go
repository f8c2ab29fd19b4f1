package filter

import (
	"fmt"

	"github.com/doug-martin/goqu/v9/exp"

	"github.com/djellemah/philtre/internal/predicate"
	"github.com/djellemah/philtre/internal/splitter"
	"github.com/djellemah/philtre/internal/value"
)

// OrderDirective orders by one field.
type OrderDirective struct {
	Field string
	Desc  bool
}

// ParseDirective reads "name", "name_asc" or "name_desc".
func ParseDirective(s string) OrderDirective {
	sp := splitter.New(s)
	switch {
	case sp.Split("desc"):
		return OrderDirective{Field: sp.Field(), Desc: true}
	case sp.Split("asc"):
		return OrderDirective{Field: sp.Field()}
	}
	return OrderDirective{Field: s}
}

// Expr returns the ORDER BY expression. Qualified and container field
// addresses are honored.
func (d OrderDirective) Expr() exp.OrderedExpression {
	o := predicate.ParseField(d.Field).Orderable()
	if d.Desc {
		return o.Desc()
	}
	return o.Asc()
}

func (d OrderDirective) String() string {
	if d.Desc {
		return d.Field + "_desc"
	}
	return d.Field
}

// parseOrder reads the value of the order key: a single directive or a
// sequence of them. Blank entries are skipped.
func parseOrder(v any) []OrderDirective {
	if value.IsBlank(v) {
		return nil
	}
	var out []OrderDirective
	for _, item := range value.SeqOf(v) {
		switch d := item.(type) {
		case OrderDirective:
			out = append(out, d)
		case *OrderDirective:
			if d != nil {
				out = append(out, *d)
			}
		default:
			if value.IsBlank(item) {
				continue
			}
			out = append(out, ParseDirective(value.String(item)))
		}
	}
	return out
}

// OrderMode decides how ordering from filter parameters combines with
// ordering already present on a query.
type OrderMode int

const (
	// OrderReplace discards the query's existing ordering.
	OrderReplace OrderMode = iota
	// OrderAppend keeps the existing ordering and adds directives after it.
	OrderAppend
)

func (m OrderMode) String() string {
	switch m {
	case OrderReplace:
		return "replace"
	case OrderAppend:
		return "append"
	}
	return fmt.Sprintf("OrderMode(%d)", int(m))
}

// ParseOrderMode reads "replace" or "append".
func ParseOrderMode(s string) (OrderMode, error) {
	switch s {
	case "", "replace":
		return OrderReplace, nil
	case "append":
		return OrderAppend, nil
	}
	return OrderReplace, fmt.Errorf("invalid order mode %q: must be replace or append", s)
}
