package query

import (
	"github.com/doug-martin/goqu/v9/exp"
)

// Node is an element of a template tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	node()
}

// ClauseKind names a section of a query.
type ClauseKind string

const (
	ClauseFrom   ClauseKind = "from"
	ClauseSelect ClauseKind = "select"
	ClauseWhere  ClauseKind = "where"
	ClauseHaving ClauseKind = "having"
	ClauseGroup  ClauseKind = "group"
	ClauseOrder  ClauseKind = "order"
)

// ClauseKinds lists every clause kind a Query can hold.
var ClauseKinds = []ClauseKind{
	ClauseFrom, ClauseSelect, ClauseWhere, ClauseHaving, ClauseGroup, ClauseOrder,
}

// Valid reports whether k is a known clause kind.
func (k ClauseKind) Valid() bool {
	for _, c := range ClauseKinds {
		if c == k {
			return true
		}
	}
	return false
}

// IsPredicate reports whether placeholders under k resolve to boolean
// expressions.
func (k ClauseKind) IsPredicate() bool {
	return k == ClauseWhere || k == ClauseHaving
}

// Clause is one named section of a Query.
type Clause struct {
	Kind ClauseKind
	Node Node
}

// Seq is an ordered list of nodes. In a where or having clause the
// elements are ANDed together.
type Seq []Node

func (Seq) node() {}

// Op is the operator of a Composite node.
type Op string

const (
	OpAnd   Op = "AND"
	OpOr    Op = "OR"
	OpNot   Op = "NOT"
	OpEq    Op = "="
	OpNeq   Op = "!="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpIn    Op = "IN"
	OpNotIn Op = "NOT IN"
)

// IsBinary reports whether op takes exactly a left and a right operand.
func (op Op) IsBinary() bool {
	switch op {
	case OpAnd, OpOr, OpNot:
		return false
	}
	return true
}

// Composite is an operator applied to operand nodes.
type Composite struct {
	Op       Op
	Operands Seq
}

func (Composite) node() {}

// PlaceHolder is a named slot filled from filter parameters during
// expansion. Field, when set, overrides the field the predicate targets.
// Source records where the placeholder was written, for diagnostics.
type PlaceHolder struct {
	Name   string
	Field  string
	Source string
}

func (PlaceHolder) node() {}

// String renders the placeholder as $name or $name:field.
func (p PlaceHolder) String() string {
	if p.Field == "" {
		return "$" + p.Name
	}
	return "$" + p.Name + ":" + p.Field
}

// Leaf wraps an opaque goqu expression.
type Leaf struct {
	Expr exp.Expression
}

func (Leaf) node() {}

// Empty marks the absence of an expression.
type Empty struct{}

func (Empty) node() {}

// IsEmpty reports whether n is nil or Empty.
func IsEmpty(n Node) bool {
	switch n.(type) {
	case nil, Empty:
		return true
	}
	return false
}
