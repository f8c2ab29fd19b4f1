// Package filter holds filter parameters: a flat mapping of keys such as
// "age_gt" or "title_like" to values, plus an "order" key listing order
// directives. Parameters turn into goqu expressions through a predicate
// registry, and can be applied to a template query or a goqu dataset.
//
// A Params value is not safe for concurrent use. Subset, Extract and
// Clone hand out independent copies.
package filter

import (
	"sort"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/djellemah/philtre/internal/predicate"
	"github.com/djellemah/philtre/internal/query"
	"github.com/djellemah/philtre/internal/value"
)

// OrderKey is the reserved key holding order directives.
const OrderKey = "order"

// Pair is one key and its value.
type Pair struct {
	Key   string
	Value any
}

// Option configures a Params.
type Option func(*Params)

// WithPredicates uses a copy of r instead of the default registry.
func WithPredicates(r *predicate.Registry) Option {
	return func(p *Params) {
		if r.Frozen() {
			p.predicates = r
			return
		}
		p.predicates = r.Clone()
	}
}

// WithBlankValues keeps blank values (nil, "") as valued entries, so that
// for example "name": nil produces name IS NULL instead of being ignored.
func WithBlankValues() Option {
	return func(p *Params) { p.keepBlank = true }
}

// Params is an ordered set of filter parameters.
type Params struct {
	keys       []string
	values     map[string]any
	predicates *predicate.Registry
	keepBlank  bool

	// memoized parse of the order key; reset by any mutation
	order       []OrderDirective
	orderParsed bool
}

// New creates Params from m. Keys are sorted so that expressions come out
// in a stable order. A nil map gives empty Params.
func New(m map[string]any, opts ...Option) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k, Value: m[k]}
	}
	return FromPairs(pairs, opts...)
}

// FromPairs creates Params keeping the given key order. A repeated key
// keeps its first position and its last value.
func FromPairs(pairs []Pair, opts ...Option) *Params {
	p := &Params{
		values:     make(map[string]any, len(pairs)),
		predicates: predicate.Default,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, pair := range pairs {
		p.Set(pair.Key, pair.Value)
	}
	return p
}

// derive creates empty Params sharing p's options, with its own registry.
func (p *Params) derive() *Params {
	d := &Params{
		values:     make(map[string]any),
		predicates: p.predicates,
		keepBlank:  p.keepBlank,
	}
	if !p.predicates.Frozen() {
		d.predicates = p.predicates.Clone()
	}
	return d
}

// Set assigns a value. The value is deep-copied.
func (p *Params) Set(key any, v any) {
	k := value.Key(key)
	if _, ok := p.values[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.values[k] = value.Copy(v)
	p.resetOrder()
}

// Delete removes key.
func (p *Params) Delete(key string) {
	k := value.Key(key)
	if _, ok := p.values[k]; !ok {
		return
	}
	delete(p.values, k)
	for i, existing := range p.keys {
		if existing == k {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
	p.resetOrder()
}

func (p *Params) resetOrder() {
	p.order = nil
	p.orderParsed = false
}

// Get returns the value for key, or nil if it is absent or blank.
func (p *Params) Get(key string) any {
	v := p.values[value.Key(key)]
	if value.IsBlank(v) {
		return nil
	}
	return v
}

// Lookup returns the raw value for key.
func (p *Params) Lookup(key string) (any, bool) {
	v, ok := p.values[value.Key(key)]
	return v, ok
}

// Has reports whether key has a non-blank value.
func (p *Params) Has(key string) bool {
	return p.Get(key) != nil
}

// Keys returns every key in order, including the order key.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of keys.
func (p *Params) Len() int { return len(p.keys) }

// Empty reports whether there are no non-blank values.
func (p *Params) Empty() bool {
	for _, k := range p.keys {
		if !value.IsBlank(p.values[k]) {
			return false
		}
	}
	return true
}

// Predicates returns the registry used to resolve keys.
func (p *Params) Predicates() *predicate.Registry { return p.predicates }

// Register adds a custom predicate to this instance only.
func (p *Params) Register(name string, fn any) error {
	if p.predicates.Frozen() {
		p.predicates = p.predicates.Clone()
	}
	return p.predicates.Register(name, fn)
}

// valued reports whether v takes part in predicate generation. Empty
// sequences do: they mean "explicitly the empty set".
func (p *Params) valued(key string, v any) bool {
	if key == OrderKey {
		return false
	}
	return p.keepBlank || !value.IsBlankScalar(v)
}

// Valued returns the entries that produce predicates: everything except
// the order key and blank scalar values.
func (p *Params) Valued() []Pair {
	var out []Pair
	for _, k := range p.keys {
		if v := p.values[k]; p.valued(k, v) {
			out = append(out, Pair{Key: k, Value: v})
		}
	}
	return out
}

// ValuedKeys returns the keys of Valued.
func (p *Params) ValuedKeys() []string {
	var out []string
	for _, pair := range p.Valued() {
		out = append(out, pair.Key)
	}
	return out
}

// Expr returns the predicate for key, targeting field instead of the field
// in the key when field is non-empty. It returns nil if key is absent or
// blank. Unlike Valued, an empty sequence counts as blank here, so a
// placeholder given [] drops out of its clause.
func (p *Params) Expr(key, field string) exp.Expression {
	k := value.Key(key)
	v, ok := p.values[k]
	if !ok || !p.valued(k, v) {
		return nil
	}
	if !p.keepBlank && value.IsBlank(v) {
		return nil
	}
	return p.predicates.Resolve(k, v, field)
}

// Exprs returns the predicates for every valued entry.
func (p *Params) Exprs() []exp.Expression {
	var out []exp.Expression
	for _, pair := range p.Valued() {
		if e := p.predicates.Resolve(pair.Key, pair.Value, ""); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Order returns the parsed order directives in input order. Fields may
// repeat.
func (p *Params) Order() []OrderDirective {
	if !p.orderParsed {
		p.order = parseOrder(p.values[OrderKey])
		p.orderParsed = true
	}
	return append([]OrderDirective(nil), p.order...)
}

// OrderKeys returns the distinct fields named by order directives.
func (p *Params) OrderKeys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range p.Order() {
		if !seen[d.Field] {
			seen[d.Field] = true
			out = append(out, d.Field)
		}
	}
	return out
}

// OrderFor returns the directive for field. The latest directive wins.
func (p *Params) OrderFor(field string) (OrderDirective, bool) {
	order := p.Order()
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Field == field {
			return order[i], true
		}
	}
	return OrderDirective{}, false
}

// OrderExprs returns ORDER BY expressions for every directive.
func (p *Params) OrderExprs() []exp.OrderedExpression {
	order := p.Order()
	out := make([]exp.OrderedExpression, len(order))
	for i, d := range order {
		out[i] = d.Expr()
	}
	return out
}

// Apply ANDs every predicate onto q and replaces its ordering when there
// are order directives. q is not modified.
func (p *Params) Apply(q *query.Query) *query.Query {
	return p.ApplyTo(q, OrderReplace)
}

// ApplyTo is Apply with an explicit OrderMode. Without order directives
// the query's ordering is left alone in either mode.
func (p *Params) ApplyTo(q *query.Query, mode OrderMode) *query.Query {
	exprs := p.Exprs()
	conds := make([]query.Node, len(exprs))
	for i, e := range exprs {
		conds[i] = query.Expr(e)
	}
	out := q.Where(conds...)

	order := p.OrderExprs()
	if len(order) == 0 {
		return out
	}
	items := make([]query.Node, len(order))
	for i, o := range order {
		items[i] = query.Expr(o)
	}
	if mode == OrderAppend {
		return out.OrderAppend(items...)
	}
	return out.Order(items...)
}

// ApplyDataset applies the parameters directly to a goqu dataset.
func (p *Params) ApplyDataset(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if exprs := p.Exprs(); len(exprs) > 0 {
		ds = ds.Where(exprs...)
	}
	if order := p.OrderExprs(); len(order) > 0 {
		ds = ds.Order(order...)
	}
	return ds
}

// Subset returns independent Params holding only the given keys.
func (p *Params) Subset(keys ...string) *Params {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[value.Key(k)] = true
	}
	return p.SubsetFunc(func(key string, _ any) bool { return want[key] })
}

// SubsetFunc returns independent Params holding the entries fn accepts.
func (p *Params) SubsetFunc(fn func(key string, v any) bool) *Params {
	out := p.derive()
	for _, k := range p.keys {
		if v := p.values[k]; fn(k, v) {
			out.Set(k, v)
		}
	}
	return out
}

// Extract is Subset that also removes the keys from p.
func (p *Params) Extract(keys ...string) *Params {
	out := p.Subset(keys...)
	for _, k := range out.keys {
		p.Delete(k)
	}
	return out
}

// ExtractFunc is SubsetFunc that also removes the entries from p.
func (p *Params) ExtractFunc(fn func(key string, v any) bool) *Params {
	out := p.SubsetFunc(fn)
	for _, k := range out.keys {
		p.Delete(k)
	}
	return out
}

// Clone returns an independent copy with extras assigned on top.
func (p *Params) Clone(extras ...Pair) *Params {
	out := p.SubsetFunc(func(string, any) bool { return true })
	for _, e := range extras {
		out.Set(e.Key, e.Value)
	}
	return out
}

// Pairs returns the entries in order. Unless all is set, blank values are
// left out.
func (p *Params) Pairs(all bool) []Pair {
	out := make([]Pair, 0, len(p.keys))
	for _, k := range p.keys {
		v := p.values[k]
		if !all && value.IsBlank(v) {
			continue
		}
		out = append(out, Pair{Key: k, Value: value.Copy(v)})
	}
	return out
}

// ToMap is Pairs as a map.
func (p *Params) ToMap(all bool) map[string]any {
	pairs := p.Pairs(all)
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		out[pair.Key] = pair.Value
	}
	return out
}
