package filter

import (
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djellemah/philtre/internal/predicate"
	"github.com/djellemah/philtre/internal/query"
)

func render(t *testing.T, q *query.Query) string {
	t.Helper()
	sql, _, err := query.NewRenderer("postgres").SQL(q)
	require.NoError(t, err)
	return sql
}

func where(t *testing.T, e exp.Expression) string {
	t.Helper()
	sql, _, err := goqu.Dialect("postgres").From("t").Where(e).ToSQL()
	require.NoError(t, err)
	return strings.TrimPrefix(sql, `SELECT * FROM "t" WHERE `)
}

func peopleParams() *Params {
	return New(map[string]any{
		"birth_year": []string{"2011", "2012"},
		"title_like": "sir",
		"order":      []string{"title", "birth_year_desc"},
	})
}

func TestApply_EndToEnd(t *testing.T) {
	got := render(t, peopleParams().Apply(query.From("people")))
	assert.Equal(t,
		`SELECT * FROM "people" WHERE (("birth_year" IN ('2011', '2012')) AND ("title" ~* 'sir')) ORDER BY "title" ASC, "birth_year" DESC`,
		got)
}

func TestApplyDataset(t *testing.T) {
	sql, _, err := peopleParams().ApplyDataset(goqu.Dialect("postgres").From("people")).ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "people" WHERE (("birth_year" IN ('2011', '2012')) AND ("title" ~* 'sir')) ORDER BY "title" ASC, "birth_year" DESC`,
		sql)
}

func TestValued(t *testing.T) {
	p := FromPairs([]Pair{
		{"name", "bob"},
		{"blank", ""},
		{"spaces", "   "},
		{"none", nil},
		{"flavour", []string{}},
		{"order", "name"},
		{"age_gt", 0},
	})

	assert.Equal(t, []string{"name", "flavour", "age_gt"}, p.ValuedKeys())
	assert.Equal(t, []string{"name", "blank", "spaces", "none", "flavour", "order", "age_gt"}, p.Keys())
	assert.Equal(t, 7, p.Len())
}

func TestExpr(t *testing.T) {
	p := New(map[string]any{
		"name":          "bob",
		"replace_this":  "x",
		"blank":         "",
		"flavour":       []string{},
		"created_at_gt": 10,
	})

	assert.Equal(t, `("name" = 'bob')`, where(t, p.Expr("name", "")))
	assert.Equal(t, `("with_other" = 'x')`, where(t, p.Expr("replace_this", "with_other")))
	assert.Equal(t, `("created_at" > 10)`, where(t, p.Expr("created_at_gt", "")))
	assert.Equal(t, `("made_at" > 10)`, where(t, p.Expr("created_at_gt", "made_at")))
	assert.Nil(t, p.Expr("flavour", ""))
	assert.Nil(t, p.Expr("blank", ""))
	assert.Nil(t, p.Expr("missing", ""))
	assert.Nil(t, p.Expr(OrderKey, ""))
}

func TestEmptySequence_ValuedButNoExpr(t *testing.T) {
	p := New(map[string]any{"flavour": []string{}})

	assert.Equal(t, []string{"flavour"}, p.ValuedKeys())
	assert.Nil(t, p.Expr("flavour", ""))
	require.Len(t, p.Exprs(), 1)
	assert.Equal(t, `(1 = 0)`, where(t, p.Exprs()[0]))
	assert.Equal(t, `SELECT * FROM "ice_cream" WHERE (1 = 0)`, render(t, p.Apply(query.From("ice_cream"))))

	kept := New(map[string]any{"flavour": []string{}}, WithBlankValues())
	assert.Equal(t, `(1 = 0)`, where(t, kept.Expr("flavour", "")))
}

func TestWithBlankValues(t *testing.T) {
	p := New(map[string]any{"name": nil, "title_not_eq": nil}, WithBlankValues())

	assert.Equal(t, []string{"name", "title_not_eq"}, p.ValuedKeys())
	assert.Equal(t, `("name" IS NULL)`, where(t, p.Expr("name", "")))
	assert.Equal(t, `("title" IS NOT NULL)`, where(t, p.Expr("title_not_eq", "")))
}

func TestGet(t *testing.T) {
	p := New(map[string]any{"name": "bob", "blank": "", "none": nil})
	assert.Equal(t, "bob", p.Get("name"))
	assert.Nil(t, p.Get("blank"))
	assert.Nil(t, p.Get("none"))
	assert.Nil(t, p.Get("missing"))
	assert.True(t, p.Has("name"))
	assert.False(t, p.Has("blank"))

	v, ok := p.Lookup("blank")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name  string
		order any
		want  []OrderDirective
	}{
		{"nil", nil, nil},
		{"empty", []string{}, nil},
		{"single string", "title", []OrderDirective{{Field: "title"}}},
		{"desc and asc", []string{"a_desc", "b"}, []OrderDirective{{Field: "a", Desc: true}, {Field: "b"}}},
		{"explicit asc", []string{"a_asc"}, []OrderDirective{{Field: "a"}}},
		{"blanks skipped", []any{"", nil, "a"}, []OrderDirective{{Field: "a"}}},
		{"duplicates kept", []string{"a", "a_desc"}, []OrderDirective{{Field: "a"}, {Field: "a", Desc: true}}},
		{"directive values", []OrderDirective{{Field: "x", Desc: true}}, []OrderDirective{{Field: "x", Desc: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(map[string]any{OrderKey: tt.order})
			assert.Equal(t, tt.want, p.Order())
		})
	}
}

func TestOrderFor_LatestWins(t *testing.T) {
	p := New(map[string]any{OrderKey: []string{"a_desc", "b", "a"}})

	d, ok := p.OrderFor("a")
	require.True(t, ok)
	assert.False(t, d.Desc)

	d, ok = p.OrderFor("b")
	require.True(t, ok)
	assert.Equal(t, OrderDirective{Field: "b"}, d)

	_, ok = p.OrderFor("c")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, p.OrderKeys())
	assert.Len(t, p.Order(), 3)
}

func TestOrderDirective_Expr(t *testing.T) {
	sql, _, err := goqu.Dialect("postgres").From("t").Order(
		OrderDirective{Field: "heavens__salutation", Desc: true}.Expr(),
		OrderDirective{Field: "store[owner]"}.Expr(),
	).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t" ORDER BY "heavens"."salutation" DESC, ("store" -> 'owner') ASC`, sql)

	assert.Equal(t, "a_desc", OrderDirective{Field: "a", Desc: true}.String())
	assert.Equal(t, "a", OrderDirective{Field: "a"}.String())
}

func TestApply_KeepsExistingOrderWithoutDirectives(t *testing.T) {
	base := query.From("people").Order(query.Asc("id"))
	got := render(t, New(map[string]any{"name": "bob"}).Apply(base))
	assert.Equal(t, `SELECT * FROM "people" WHERE ("name" = 'bob') ORDER BY "id" ASC`, got)
}

func TestApplyTo_OrderModes(t *testing.T) {
	base := query.From("people").Order(query.Asc("id"))
	p := New(map[string]any{OrderKey: "name_desc"})

	assert.Equal(t, `SELECT * FROM "people" ORDER BY "name" DESC`, render(t, p.ApplyTo(base, OrderReplace)))
	assert.Equal(t, `SELECT * FROM "people" ORDER BY "id" ASC, "name" DESC`, render(t, p.ApplyTo(base, OrderAppend)))
	assert.Equal(t, `SELECT * FROM "people" ORDER BY "id" ASC`, render(t, base))
}

func TestParseOrderMode(t *testing.T) {
	m, err := ParseOrderMode("append")
	require.NoError(t, err)
	assert.Equal(t, OrderAppend, m)
	assert.Equal(t, "append", m.String())

	m, err = ParseOrderMode("")
	require.NoError(t, err)
	assert.Equal(t, OrderReplace, m)

	_, err = ParseOrderMode("sideways")
	assert.Error(t, err)
}

func TestNew_NilMap(t *testing.T) {
	p := New(nil)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Exprs())
	assert.Empty(t, p.Order())
	assert.Equal(t, `SELECT * FROM "people"`, render(t, p.Apply(query.From("people"))))
}

func TestNew_DoesNotAliasCallerValues(t *testing.T) {
	years := []any{"2011", "2012"}
	p := New(map[string]any{"birth_year": years})
	years[0] = "1999"

	assert.Equal(t, []any{"2011", "2012"}, p.Get("birth_year"))
}

func TestSubset(t *testing.T) {
	p := peopleParams()
	sub := p.Subset("title_like", "missing")

	assert.Equal(t, []string{"title_like"}, sub.Keys())
	assert.Equal(t, 3, p.Len())

	sub.Set("title_like", "lord")
	assert.Equal(t, "sir", p.Get("title_like"))

	byFunc := p.SubsetFunc(func(key string, _ any) bool { return strings.HasPrefix(key, "birth") })
	assert.Equal(t, []string{"birth_year"}, byFunc.Keys())
}

func TestExtract(t *testing.T) {
	p := peopleParams()
	out := p.Extract("order")

	assert.Equal(t, []string{OrderKey}, out.Keys())
	assert.Len(t, out.Order(), 2)
	assert.Equal(t, []string{"birth_year", "title_like"}, p.Keys())
	assert.Empty(t, p.Order())

	rest := p.ExtractFunc(func(key string, _ any) bool { return key == "birth_year" })
	assert.Equal(t, []string{"birth_year"}, rest.Keys())
	assert.Equal(t, []string{"title_like"}, p.Keys())
}

func TestClone(t *testing.T) {
	p := peopleParams()
	require.Len(t, p.Order(), 2)

	c := p.Clone(Pair{Key: "order", Value: "id"}, Pair{Key: "name", Value: "bob"})
	assert.Equal(t, []OrderDirective{{Field: "id"}}, c.Order())
	assert.Equal(t, "bob", c.Get("name"))

	assert.Len(t, p.Order(), 2)
	assert.Nil(t, p.Get("name"))
}

func TestSet_InvalidatesOrderMemo(t *testing.T) {
	p := New(map[string]any{OrderKey: "a"})
	require.Equal(t, []OrderDirective{{Field: "a"}}, p.Order())

	p.Set(OrderKey, []string{"b_desc"})
	assert.Equal(t, []OrderDirective{{Field: "b", Desc: true}}, p.Order())
}

func TestRegister_PerInstance(t *testing.T) {
	p := New(map[string]any{"year_custom": 2012})
	require.NoError(t, p.Register("custom", func(v any) exp.Expression {
		return goqu.L("year = ?", v)
	}))

	assert.Equal(t, `year = 2012`, where(t, p.Expr("year_custom", "")))
	assert.False(t, predicate.Default.Has("custom"))

	other := New(map[string]any{"year_custom": 2012})
	assert.Equal(t, `("year_custom" = 2012)`, where(t, other.Expr("year_custom", "")))

	sub := p.Subset("year_custom")
	require.NoError(t, sub.Register("another", func(v any) exp.Expression { return goqu.L("true") }))
	assert.False(t, p.Predicates().Has("another"))
	assert.True(t, sub.Predicates().Has("custom"))
}

func TestWithPredicates(t *testing.T) {
	r := predicate.Default.Clone()
	r.MustRegister("tagged", func(v any) exp.Expression { return goqu.L("? = ANY(tags)", v) })

	p := New(map[string]any{"tagged": "go"}, WithPredicates(r))
	assert.Equal(t, `'go' = ANY(tags)`, where(t, p.Expr("tagged", "")))

	r.MustRegister("later", func(v any) exp.Expression { return goqu.L("true") })
	assert.False(t, p.Predicates().Has("later"))
}

func TestPairsAndToMap(t *testing.T) {
	p := FromPairs([]Pair{{"name", "bob"}, {"blank", ""}, {"order", "name"}})

	assert.Equal(t, []Pair{{"name", "bob"}, {"order", "name"}}, p.Pairs(false))
	assert.Len(t, p.Pairs(true), 3)
	assert.Equal(t, map[string]any{"name": "bob", "blank": "", "order": "name"}, p.ToMap(true))
}

func TestEmpty(t *testing.T) {
	assert.True(t, New(map[string]any{"a": "", "b": nil}).Empty())
	assert.False(t, New(map[string]any{"a": "x"}).Empty())
}
