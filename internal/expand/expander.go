// Package expand fills the placeholders of a template query from filter
// parameters.
//
// Expansion walks the template tree. Each placeholder resolves according to
// the clause it sits in:
//
//	where, having  the predicate for the parameter of the same name
//	order          the order directive for that field
//	select         the field itself, if the parameter has a value
//
// A placeholder without a value becomes query.Empty, and empty sequences
// and composites collapse away so that no empty boolean group is rendered.
// Sub-templates (subqueries) expand with their own clause context.
//
// Filter values that no placeholder consumed are either reported as an
// error (strict mode) or ANDed onto the expanded query (lenient mode).
//
// An Expander keeps per-call state and must not run two expansions
// concurrently.
package expand

import (
	"fmt"
	"log/slog"

	"github.com/djellemah/philtre/internal/filter"
	"github.com/djellemah/philtre/internal/predicate"
	"github.com/djellemah/philtre/internal/query"
)

// clauseNone is the context outside any clause.
const clauseNone query.ClauseKind = "none"

// Place records one placeholder the expansion visited.
type Place struct {
	Clause   query.ClauseKind
	Name     string
	Field    string
	Source   string
	Resolved bool
}

// Option configures an Expander.
type Option func(*Expander)

// Strict makes unmatched filter values an error.
func Strict() Option {
	return func(e *Expander) { e.strict = true }
}

// WithOrderMode sets how leftover order directives combine with ordering
// already in the expanded query. The default is filter.OrderReplace.
func WithOrderMode(m filter.OrderMode) Option {
	return func(e *Expander) { e.orderMode = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Expander) { e.logger = l }
}

// Expander expands templates against one set of filter parameters.
type Expander struct {
	params    *filter.Params
	strict    bool
	orderMode filter.OrderMode
	logger    *slog.Logger

	// per-call state, reset by Expand
	stack    []query.ClauseKind
	places   []Place
	unknown  []string
	expanded bool
}

// New creates an Expander. nil params behave as empty parameters.
func New(params *filter.Params, opts ...Option) *Expander {
	if params == nil {
		params = filter.New(nil)
	}
	e := &Expander{
		params: params,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand expands q against params in one call.
func Expand(q *query.Query, params *filter.Params, strict bool) (*query.Query, error) {
	var opts []Option
	if strict {
		opts = append(opts, Strict())
	}
	return New(params, opts...).Expand(q)
}

// Params returns the filter parameters placeholders resolve against.
func (e *Expander) Params() *filter.Params { return e.params }

// Expand returns a copy of q with every placeholder resolved, then
// reconciles filter values no placeholder consumed.
func (e *Expander) Expand(q *query.Query) (*query.Query, error) {
	e.stack = nil
	e.places = nil
	e.unknown = nil
	e.expanded = false

	if q == nil {
		return nil, fmt.Errorf("cannot expand nil query")
	}

	out, err := e.expandQuery(q)
	if err != nil {
		return nil, err
	}

	e.unknown = e.computeUnknown()
	e.expanded = true

	if len(e.unknown) == 0 {
		return out, nil
	}

	if e.strict {
		return nil, NewUnmatchedError(e.Keys(), e.params.Predicates().Names(), q.String())
	}

	leftover := e.leftover()
	e.logger.Debug("applying unmatched filter values",
		"keys", e.unknown,
		"order_mode", e.orderMode.String(),
	)
	return leftover.ApplyTo(out, e.orderMode), nil
}

// Keys returns the unknown keys of the last expansion, nil before any.
func (e *Expander) Keys() []string {
	return append([]string(nil), e.unknown...)
}

// Places returns every placeholder visited by the last expansion.
func (e *Expander) Places() ([]Place, error) {
	if !e.expanded {
		return nil, newNotExpandedError("places")
	}
	return append([]Place(nil), e.places...), nil
}

// PlacesIn returns the names of placeholders visited under kind.
func (e *Expander) PlacesIn(kind query.ClauseKind) ([]string, error) {
	if !e.expanded {
		return nil, newNotExpandedError("places")
	}
	var names []string
	for _, p := range e.places {
		if p.Clause == kind {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// Unknown returns the filter keys that no placeholder consumed.
func (e *Expander) Unknown() ([]string, error) {
	if !e.expanded {
		return nil, newNotExpandedError("unknown")
	}
	return e.Keys(), nil
}

// expandQuery expands a composite-clause container. The clause stack is
// fresh for the duration, so a sub-template sees only its own clauses.
func (e *Expander) expandQuery(q *query.Query) (*query.Query, error) {
	saved := e.stack
	e.stack = nil
	defer func() { e.stack = saved }()

	out := query.New()
	for _, c := range q.Clauses() {
		e.stack = append(e.stack, c.Kind)
		n, err := e.expand(c.Node)
		e.stack = e.stack[:len(e.stack)-1]
		if err != nil {
			return nil, err
		}

		if query.IsEmpty(n) {
			e.logger.Debug("clause collapsed", "clause", c.Kind)
			continue
		}
		out = out.WithClause(c.Kind, n)
	}
	return out, nil
}

func (e *Expander) expand(n query.Node) (query.Node, error) {
	switch node := n.(type) {
	case nil, query.Empty:
		return query.Empty{}, nil
	case *query.Query:
		return e.expandQuery(node)
	case query.Seq:
		return e.expandSeq(node)
	case query.Composite:
		return e.expandComposite(node)
	case query.PlaceHolder:
		return e.resolve(node)
	case query.Leaf:
		return node, nil
	default:
		return nil, fmt.Errorf("unsupported node type: %T", n)
	}
}

// expandSeq drops elements that expand to Empty. A sequence with nothing
// left is itself Empty.
func (e *Expander) expandSeq(seq query.Seq) (query.Node, error) {
	out := make(query.Seq, 0, len(seq))
	for _, n := range seq {
		x, err := e.expand(n)
		if err != nil {
			return nil, err
		}
		if !query.IsEmpty(x) {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return query.Empty{}, nil
	}
	return out, nil
}

// expandComposite rebuilds c over its expanded operands. AND and OR keep
// whatever operands remain; a comparison that lost an operand has no
// meaning and collapses to Empty.
func (e *Expander) expandComposite(c query.Composite) (query.Node, error) {
	x, err := e.expandSeq(c.Operands)
	if err != nil {
		return nil, err
	}
	operands, ok := x.(query.Seq)
	if !ok {
		return query.Empty{}, nil
	}
	if c.Op.IsBinary() && len(operands) != len(c.Operands) {
		return query.Empty{}, nil
	}
	return query.Composite{Op: c.Op, Operands: operands}, nil
}

func (e *Expander) current() query.ClauseKind {
	if len(e.stack) == 0 {
		return clauseNone
	}
	return e.stack[len(e.stack)-1]
}

func (e *Expander) resolve(p query.PlaceHolder) (query.Node, error) {
	kind := e.current()

	var out query.Node = query.Empty{}
	switch {
	case kind.IsPredicate():
		if expr := e.params.Expr(p.Name, p.Field); expr != nil {
			out = query.Expr(expr)
		}

	case kind == query.ClauseOrder:
		if d, ok := e.params.OrderFor(p.Name); ok {
			if p.Field != "" {
				d.Field = p.Field
			}
			out = query.Expr(d.Expr())
		}

	case kind == query.ClauseSelect:
		// false switches a projection off
		if v := e.params.Get(p.Name); v != nil && v != false {
			field := p.Field
			if field == "" {
				field = p.Name
			}
			out = query.Expr(predicate.ParseField(field).Operand())
		}

	default:
		return nil, NewUnknownClauseError(kind, p)
	}

	resolved := !query.IsEmpty(out)
	e.places = append(e.places, Place{
		Clause:   kind,
		Name:     p.Name,
		Field:    p.Field,
		Source:   p.Source,
		Resolved: resolved,
	})
	e.logger.Debug("placeholder resolved",
		"name", p.Name,
		"clause", kind,
		"resolved", resolved,
		"source", p.Source,
	)
	return out, nil
}

// computeUnknown returns valued keys and order fields, in that order, that
// no placeholder named.
func (e *Expander) computeUnknown() []string {
	consumed := make(map[string]bool, len(e.places))
	for _, p := range e.places {
		consumed[p.Name] = true
	}

	var unknown []string
	seen := make(map[string]bool)
	candidates := append(e.params.ValuedKeys(), e.params.OrderKeys()...)
	for _, k := range candidates {
		if consumed[k] || seen[k] {
			continue
		}
		seen[k] = true
		unknown = append(unknown, k)
	}
	return unknown
}

// leftover builds parameters holding only the unknown values, including
// unknown order directives in their original order.
func (e *Expander) leftover() *filter.Params {
	unknown := make(map[string]bool, len(e.unknown))
	for _, k := range e.unknown {
		unknown[k] = true
	}

	var valued []string
	for _, k := range e.params.ValuedKeys() {
		if unknown[k] {
			valued = append(valued, k)
		}
	}
	out := e.params.Subset(valued...)

	var order []filter.OrderDirective
	for _, d := range e.params.Order() {
		if unknown[d.Field] {
			order = append(order, d)
		}
	}
	if len(order) > 0 {
		out.Set(filter.OrderKey, order)
	}
	return out
}
