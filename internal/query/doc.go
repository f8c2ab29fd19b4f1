// Package query defines the template tree that filter expansion works on,
// and renders it to SQL through goqu.
//
// A template is a *Query: an ordered set of clauses (from, select, where,
// having, group, order), each holding a Node. Nodes form a closed set:
//
//	*Query       composite-clause container, also used as a sub-template
//	Seq          ordered list of nodes
//	Composite    AND / OR / NOT / comparison over operand nodes
//	PlaceHolder  named slot to be filled from filter parameters
//	Leaf         opaque goqu expression, left untouched by expansion
//	Empty        "no expression here"; collapsed away, never rendered
//
// The Node interface is sealed with an unexported marker method so that
// tree walkers can switch exhaustively over node kinds.
//
// RENDERING:
//
//	q := query.From("people").
//		Where(query.Place("birth_year"), query.Place("title_like")).
//		Order(query.Place("title"))
//	sql, args, err := query.NewRenderer("postgres").SQL(q)
//
// Empty clauses are skipped. A placeholder that survives to rendering is
// written as the literal $name (or $name:field) so that it shows up in
// diagnostics instead of silently vanishing.
package query
