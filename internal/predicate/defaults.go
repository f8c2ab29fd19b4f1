package predicate

import (
	"regexp"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/djellemah/philtre/internal/value"
)

var (
	// matchNone is what membership in an explicitly empty set renders as.
	matchNone = goqu.L("(1 = 0)")
	matchAll  = goqu.L("(1 = 1)")
)

var aliases = map[string]string{
	"gteq":    "gte",
	"lteq":    "lte",
	"matches": "like",
}

func newDefault() *Registry {
	r := newRegistry()

	r.define("eq", eq)
	r.define("not_eq", notEq)
	r.define("gt", func(_ *Registry, f Operand, v any) exp.Expression { return f.Gt(v) })
	r.define("gte", func(_ *Registry, f Operand, v any) exp.Expression { return f.Gte(v) })
	r.define("lt", func(_ *Registry, f Operand, v any) exp.Expression { return f.Lt(v) })
	r.define("lte", func(_ *Registry, f Operand, v any) exp.Expression { return f.Lte(v) })

	r.define("like", like)
	r.define("not_like", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpNotILike(value.String(v))
	})
	r.define("like_all", func(r *Registry, f Operand, v any) exp.Expression {
		return goqu.And(likeEach(r, f, v)...)
	})
	r.define("like_any", func(r *Registry, f Operand, v any) exp.Expression {
		return goqu.Or(likeEach(r, f, v)...)
	})

	r.define("cont", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpILike(regexp.QuoteMeta(value.String(v)))
	})
	r.define("not_cont", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpNotILike(regexp.QuoteMeta(value.String(v)))
	})
	r.define("start", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpILike("^" + value.String(v))
	})
	r.define("not_start", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpNotILike("^" + value.String(v))
	})
	r.define("end", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpILike(value.String(v) + "$")
	})
	r.define("not_end", func(_ *Registry, f Operand, v any) exp.Expression {
		return f.RegexpNotILike(value.String(v) + "$")
	})

	r.define("blank", func(_ *Registry, f Operand, _ any) exp.Expression {
		return goqu.Or(f.IsNull(), f.Eq(""))
	})
	r.define("not_blank", func(_ *Registry, f Operand, _ any) exp.Expression {
		return goqu.And(f.IsNotNull(), f.Neq(""))
	})
	r.define("null", func(_ *Registry, f Operand, _ any) exp.Expression { return f.IsNull() })
	r.define("not_null", func(_ *Registry, f Operand, _ any) exp.Expression { return f.IsNotNull() })

	r.define("in", func(_ *Registry, f Operand, v any) exp.Expression {
		vals := value.SeqOf(v)
		if len(vals) == 0 {
			return matchNone
		}
		return f.In(vals...)
	})
	r.define("not_in", func(_ *Registry, f Operand, v any) exp.Expression {
		vals := value.SeqOf(v)
		if len(vals) == 0 {
			return matchAll
		}
		return f.NotIn(vals...)
	})

	for alias, name := range aliases {
		r.funcs[alias] = r.funcs[name]
		r.containers[alias] = r.containers[name]
	}

	r.defineContainer("eq", containerEq)
	r.defineContainer("not_eq", containerNotEq)

	r.sortNames()
	r.frozen = true
	return r
}

func eq(_ *Registry, f Operand, v any) exp.Expression {
	if v == nil {
		return f.IsNull()
	}
	if vals, ok := value.Seq(v); ok {
		if len(vals) == 0 {
			return matchNone
		}
		return f.In(vals...)
	}
	return f.Eq(v)
}

func notEq(_ *Registry, f Operand, v any) exp.Expression {
	if v == nil {
		return f.IsNotNull()
	}
	if vals, ok := value.Seq(v); ok {
		if len(vals) == 0 {
			return matchAll
		}
		return f.NotIn(vals...)
	}
	return f.Neq(v)
}

// like is a case-insensitive regular expression match. A sequence value
// matches if any element does.
func like(r *Registry, f Operand, v any) exp.Expression {
	if _, ok := value.Seq(v); ok {
		return r.call("like_any", f, v)
	}
	return f.RegexpILike(value.String(v))
}

// likeEach calls the registry's "like" once per element, so an overridden
// "like" also changes like_all and like_any.
func likeEach(r *Registry, f Operand, v any) []exp.Expression {
	vals := value.SeqOf(v)
	out := make([]exp.Expression, 0, len(vals))
	for _, elem := range vals {
		out = append(out, r.call("like", f, elem))
	}
	return out
}

// containerEq tests hstore containment, which can use a GiST index on the
// container column.
func containerEq(r *Registry, f Field, v any) exp.Expression {
	if _, ok := value.Seq(v); ok || v == nil {
		return r.call("eq", f.Accessor(), v)
	}
	return goqu.L("(? @> hstore(?, ?))", f.Ident(), f.Subkey, value.String(v))
}

func containerNotEq(r *Registry, f Field, v any) exp.Expression {
	if _, ok := value.Seq(v); ok || v == nil {
		return r.call("not_eq", f.Accessor(), v)
	}
	return goqu.L("NOT (? @> hstore(?, ?))", f.Ident(), f.Subkey, value.String(v))
}
