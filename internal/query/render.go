package query

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

// DefaultDialect is the goqu dialect used when none is given.
const DefaultDialect = "postgres"

// Dialects lists the dialects the renderer registers.
var Dialects = []string{"postgres", "sqlite3", "mysql"}

// Renderer turns a template tree into a goqu dataset and SQL.
type Renderer struct {
	Dialect string
	// Prepared emits bind parameters instead of interpolated values.
	Prepared bool
}

// NewRenderer creates a Renderer for dialect ("" means DefaultDialect).
func NewRenderer(dialect string) *Renderer {
	if dialect == "" {
		dialect = DefaultDialect
	}
	return &Renderer{Dialect: dialect}
}

// SQL renders q. args is empty unless Prepared is set.
func (r *Renderer) SQL(q *Query) (string, []any, error) {
	ds, err := r.Dataset(q)
	if err != nil {
		return "", nil, err
	}
	return ds.ToSQL()
}

// Dataset builds the goqu dataset for q.
func (r *Renderer) Dataset(q *Query) (*goqu.SelectDataset, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot render nil query")
	}

	ds := goqu.Dialect(r.Dialect).From().Prepared(r.Prepared)
	for _, c := range q.clauses {
		if IsEmpty(c.Node) {
			continue
		}

		var err error
		switch c.Kind {
		case ClauseFrom:
			ds, err = r.renderFrom(ds, c.Node)
		case ClauseSelect:
			var cols []any
			cols, err = r.items(c.Node)
			if err == nil && len(cols) > 0 {
				ds = ds.Select(cols...)
			}
		case ClauseWhere:
			var conds []exp.Expression
			conds, err = r.conditions(c.Node)
			if err == nil && len(conds) > 0 {
				ds = ds.Where(conds...)
			}
		case ClauseHaving:
			var conds []exp.Expression
			conds, err = r.conditions(c.Node)
			if err == nil && len(conds) > 0 {
				ds = ds.Having(conds...)
			}
		case ClauseGroup:
			var cols []any
			cols, err = r.items(c.Node)
			if err == nil && len(cols) > 0 {
				ds = ds.GroupBy(cols...)
			}
		case ClauseOrder:
			var order []exp.OrderedExpression
			order, err = r.ordering(c.Node)
			if err == nil && len(order) > 0 {
				ds = ds.Order(order...)
			}
		default:
			return nil, fmt.Errorf("unsupported clause kind: %q", c.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", c.Kind, err)
		}
	}
	return ds, nil
}

func (r *Renderer) renderFrom(ds *goqu.SelectDataset, n Node) (*goqu.SelectDataset, error) {
	items, err := r.items(n)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return ds, nil
	}
	return ds.From(items...), nil
}

// items renders a column or table list.
func (r *Renderer) items(n Node) ([]any, error) {
	nodes := flatten(n)
	out := make([]any, 0, len(nodes))
	for _, node := range nodes {
		e, err := r.expression(node)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// conditions renders the elements of a where or having clause. They are
// ANDed by the dataset.
func (r *Renderer) conditions(n Node) ([]exp.Expression, error) {
	nodes := flatten(n)
	out := make([]exp.Expression, 0, len(nodes))
	for _, node := range nodes {
		e, err := r.expression(node)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Renderer) ordering(n Node) ([]exp.OrderedExpression, error) {
	nodes := flatten(n)
	out := make([]exp.OrderedExpression, 0, len(nodes))
	for _, node := range nodes {
		e, err := r.expression(node)
		if err != nil {
			return nil, err
		}
		switch o := e.(type) {
		case nil:
		case exp.OrderedExpression:
			out = append(out, o)
		case exp.Orderable:
			out = append(out, o.Asc())
		default:
			return nil, fmt.Errorf("cannot order by %T", e)
		}
	}
	return out, nil
}

// expression renders a single node. Empty renders as nil.
func (r *Renderer) expression(n Node) (exp.Expression, error) {
	switch node := n.(type) {
	case nil, Empty:
		return nil, nil
	case Leaf:
		return node.Expr, nil
	case PlaceHolder:
		return goqu.L(node.String()), nil
	case Seq:
		conds, err := r.conditions(node)
		if err != nil || len(conds) == 0 {
			return nil, err
		}
		return goqu.And(conds...), nil
	case *Query:
		return r.Dataset(node)
	case Composite:
		return r.composite(node)
	default:
		return nil, fmt.Errorf("unsupported node type: %T", n)
	}
}

type comparer interface {
	exp.Comparable
	exp.Inable
}

func (r *Renderer) composite(c Composite) (exp.Expression, error) {
	operands := make([]exp.Expression, 0, len(c.Operands))
	for _, o := range c.Operands {
		e, err := r.expression(o)
		if err != nil {
			return nil, err
		}
		if e != nil {
			operands = append(operands, e)
		}
	}

	switch c.Op {
	case OpAnd:
		return goqu.And(operands...), nil
	case OpOr:
		return goqu.Or(operands...), nil
	case OpNot:
		if len(operands) != 1 {
			return nil, fmt.Errorf("NOT takes 1 operand, got %d", len(operands))
		}
		return goqu.L("NOT (?)", operands[0]), nil
	}

	if len(operands) != 2 {
		return nil, fmt.Errorf("%s takes 2 operands, got %d", c.Op, len(operands))
	}
	lhs, ok := operands[0].(comparer)
	if !ok {
		return nil, fmt.Errorf("%T cannot be compared", operands[0])
	}
	rhs := operands[1]

	switch c.Op {
	case OpEq:
		return lhs.Eq(rhs), nil
	case OpNeq:
		return lhs.Neq(rhs), nil
	case OpGt:
		return lhs.Gt(rhs), nil
	case OpGte:
		return lhs.Gte(rhs), nil
	case OpLt:
		return lhs.Lt(rhs), nil
	case OpLte:
		return lhs.Lte(rhs), nil
	case OpIn, OpNotIn:
		return r.membership(c, lhs, rhs)
	default:
		return nil, fmt.Errorf("unsupported operator: %q", c.Op)
	}
}

// membership renders IN / NOT IN. A subquery goes through a literal so it
// is parenthesized once; a sequence becomes a value list.
func (r *Renderer) membership(c Composite, lhs comparer, rhs exp.Expression) (exp.Expression, error) {
	sql := "(? IN ?)"
	if c.Op == OpNotIn {
		sql = "(? NOT IN ?)"
	}
	if _, isSub := rhs.(*goqu.SelectDataset); isSub {
		return goqu.L(sql, lhs, rhs), nil
	}

	vals := []any{rhs}
	if seq, ok := c.Operands[1].(Seq); ok {
		vals = vals[:0]
		for _, n := range seq {
			e, err := r.expression(n)
			if err != nil {
				return nil, err
			}
			if e != nil {
				vals = append(vals, e)
			}
		}
	}
	if c.Op == OpNotIn {
		return lhs.NotIn(vals...), nil
	}
	return lhs.In(vals...), nil
}

// flatten returns the elements of a Seq, or n itself.
func flatten(n Node) []Node {
	if seq, ok := n.(Seq); ok {
		return seq
	}
	if IsEmpty(n) {
		return nil
	}
	return []Node{n}
}
