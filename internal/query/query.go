package query

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Query is a composite-clause container: an ordered set of clauses. It is
// the root of a template tree and also the node used for sub-templates
// (subqueries).
//
// Builder methods never modify the receiver; they return a new Query.
type Query struct {
	clauses []Clause
}

func (*Query) node() {}

// New returns an empty query.
func New() *Query { return &Query{} }

// From returns a query selecting from table. See (*Query).From.
func From(table any) *Query { return New().From(table) }

// Clauses returns the query's clauses in the order they were added.
func (q *Query) Clauses() []Clause {
	return append([]Clause(nil), q.clauses...)
}

// Clause returns the node held by the clause of the given kind.
func (q *Query) Clause(kind ClauseKind) (Node, bool) {
	for _, c := range q.clauses {
		if c.Kind == kind {
			return c.Node, true
		}
	}
	return nil, false
}

// Len returns the number of clauses.
func (q *Query) Len() int { return len(q.clauses) }

// WithClause sets the clause of the given kind, keeping its position if it
// already exists. Setting an empty node removes the clause.
func (q *Query) WithClause(kind ClauseKind, n Node) *Query {
	if IsEmpty(n) {
		return q.Without(kind)
	}
	out := &Query{clauses: make([]Clause, 0, len(q.clauses)+1)}
	replaced := false
	for _, c := range q.clauses {
		if c.Kind == kind {
			c.Node = n
			replaced = true
		}
		out.clauses = append(out.clauses, c)
	}
	if !replaced {
		out.clauses = append(out.clauses, Clause{Kind: kind, Node: n})
	}
	return out
}

// Without removes the clause of the given kind.
func (q *Query) Without(kind ClauseKind) *Query {
	out := &Query{clauses: make([]Clause, 0, len(q.clauses))}
	for _, c := range q.clauses {
		if c.Kind != kind {
			out.clauses = append(out.clauses, c)
		}
	}
	return out
}

// appendTo adds nodes to the clause of the given kind, turning a
// non-sequence clause into a sequence first.
func (q *Query) appendTo(kind ClauseKind, nodes []Node) *Query {
	if len(nodes) == 0 {
		return q
	}
	var seq Seq
	if existing, ok := q.Clause(kind); ok {
		if s, isSeq := existing.(Seq); isSeq {
			seq = append(seq, s...)
		} else if !IsEmpty(existing) {
			seq = append(seq, existing)
		}
	}
	seq = append(seq, nodes...)
	return q.WithClause(kind, seq)
}

// From sets the source. table may be a table name, a Node (a *Query
// becomes a subquery), or a goqu expression.
func (q *Query) From(table any) *Query {
	return q.WithClause(ClauseFrom, toNode(table, Table))
}

// Select replaces the projection. Strings are column identifiers.
func (q *Query) Select(cols ...any) *Query {
	return q.WithClause(ClauseSelect, toSeq(cols))
}

// SelectAppend adds to the projection.
func (q *Query) SelectAppend(cols ...any) *Query {
	return q.appendTo(ClauseSelect, toSeq(cols))
}

// Where adds conditions to the where clause. Conditions are ANDed.
func (q *Query) Where(conds ...Node) *Query {
	return q.appendTo(ClauseWhere, conds)
}

// Having adds conditions to the having clause.
func (q *Query) Having(conds ...Node) *Query {
	return q.appendTo(ClauseHaving, conds)
}

// GroupBy replaces the grouping columns.
func (q *Query) GroupBy(cols ...any) *Query {
	return q.WithClause(ClauseGroup, toSeq(cols))
}

// Order replaces the ordering.
func (q *Query) Order(items ...Node) *Query {
	if len(items) == 0 {
		return q.Without(ClauseOrder)
	}
	return q.WithClause(ClauseOrder, Seq(items))
}

// OrderAppend adds to the ordering.
func (q *Query) OrderAppend(items ...Node) *Query {
	return q.appendTo(ClauseOrder, items)
}

// String renders q with the default dialect, for diagnostics.
func (q *Query) String() string {
	sql, _, err := NewRenderer(DefaultDialect).SQL(q)
	if err != nil {
		return fmt.Sprintf("<unrenderable query: %v>", err)
	}
	return sql
}

func toSeq(items []any) Seq {
	seq := make(Seq, 0, len(items))
	for _, item := range items {
		seq = append(seq, toNode(item, Ident))
	}
	return seq
}

func toNode(v any, named func(string) Leaf) Node {
	switch val := v.(type) {
	case Node:
		return val
	case string:
		return named(val)
	case exp.Expression:
		return Leaf{Expr: val}
	}
	return Val(v)
}

// Ident is a column (or dotted table.column) identifier.
func Ident(name string) Leaf { return Leaf{Expr: goqu.I(name)} }

// Table is a table identifier.
func Table(name string) Leaf { return Leaf{Expr: goqu.T(name)} }

// Lit is a raw SQL fragment with ? placeholders for args.
func Lit(sql string, args ...any) Leaf { return Leaf{Expr: goqu.L(sql, args...)} }

// Val is a bound value.
func Val(v any) Leaf { return Leaf{Expr: goqu.V(v)} }

// Expr wraps an existing goqu expression.
func Expr(e exp.Expression) Leaf { return Leaf{Expr: e} }

// Asc orders by the named column ascending.
func Asc(name string) Leaf { return Leaf{Expr: goqu.I(name).Asc()} }

// Desc orders by the named column descending.
func Desc(name string) Leaf { return Leaf{Expr: goqu.I(name).Desc()} }

func And(operands ...Node) Composite { return Composite{Op: OpAnd, Operands: operands} }

func Or(operands ...Node) Composite { return Composite{Op: OpOr, Operands: operands} }

func Not(operand Node) Composite { return Composite{Op: OpNot, Operands: Seq{operand}} }

// Compare applies a binary operator.
func Compare(op Op, lhs, rhs Node) Composite {
	return Composite{Op: op, Operands: Seq{lhs, rhs}}
}

func In(lhs, rhs Node) Composite { return Compare(OpIn, lhs, rhs) }

func NotIn(lhs, rhs Node) Composite { return Compare(OpNotIn, lhs, rhs) }

// Place is a placeholder for the filter parameter name.
func Place(name string) PlaceHolder { return PlaceHolder{Name: name} }

// As targets field instead of the field derived from the placeholder name.
func (p PlaceHolder) As(field string) PlaceHolder {
	p.Field = field
	return p
}

// At tags the placeholder with its source location.
func (p PlaceHolder) At(source string) PlaceHolder {
	p.Source = source
	return p
}
