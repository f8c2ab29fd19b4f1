package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, q *Query) string {
	t.Helper()
	sql, _, err := NewRenderer("postgres").SQL(q)
	require.NoError(t, err)
	return sql
}

func TestQuery_BuildersDoNotMutate(t *testing.T) {
	base := From("people")
	filtered := base.Where(Compare(OpEq, Ident("name"), Val("bob")))

	_, ok := base.Clause(ClauseWhere)
	assert.False(t, ok)
	_, ok = filtered.Clause(ClauseWhere)
	assert.True(t, ok)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, filtered.Len())
}

func TestQuery_WhereAppends(t *testing.T) {
	q := From("people").
		Where(Place("name")).
		Where(Place("age_gt"))

	n, ok := q.Clause(ClauseWhere)
	require.True(t, ok)
	assert.Equal(t, Seq{Place("name"), Place("age_gt")}, n)
}

func TestQuery_OrderReplaces(t *testing.T) {
	q := From("people").Order(Asc("name")).Order(Desc("age"))
	n, _ := q.Clause(ClauseOrder)
	assert.Equal(t, Seq{Desc("age")}, n)

	q = q.OrderAppend(Asc("name"))
	n, _ = q.Clause(ClauseOrder)
	assert.Equal(t, Seq{Desc("age"), Asc("name")}, n)

	_, ok := q.Order().Clause(ClauseOrder)
	assert.False(t, ok)
}

func TestQuery_WithClauseKeepsPosition(t *testing.T) {
	q := From("people").Where(Place("a")).Order(Asc("b"))
	q = q.WithClause(ClauseWhere, Seq{Place("c")})

	clauses := q.Clauses()
	require.Len(t, clauses, 3)
	assert.Equal(t, ClauseWhere, clauses[1].Kind)
	assert.Equal(t, Seq{Place("c")}, clauses[1].Node)

	q = q.WithClause(ClauseWhere, Empty{})
	_, ok := q.Clause(ClauseWhere)
	assert.False(t, ok)
}

func TestPlaceHolder(t *testing.T) {
	p := Place("replace_this").As("with_other").At("people.yaml:3:5")
	assert.Equal(t, "replace_this", p.Name)
	assert.Equal(t, "with_other", p.Field)
	assert.Equal(t, "people.yaml:3:5", p.Source)
	assert.Equal(t, "$replace_this:with_other", p.String())
	assert.Equal(t, "$title", Place("title").String())
}

func TestRenderer_SQL(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		want string
	}{
		{
			name: "bare table",
			q:    From("people"),
			want: `SELECT * FROM "people"`,
		},
		{
			name: "select and where",
			q: From("people").Select("id", "name").
				Where(Compare(OpEq, Ident("name"), Val("bob"))),
			want: `SELECT "id", "name" FROM "people" WHERE ("name" = 'bob')`,
		},
		{
			name: "multiple conditions are ANDed",
			q: From("people").Where(
				Compare(OpGt, Ident("age"), Val(10)),
				Compare(OpLt, Ident("age"), Val(20)),
			),
			want: `SELECT * FROM "people" WHERE (("age" > 10) AND ("age" < 20))`,
		},
		{
			name: "or and not",
			q: From("people").Where(Or(
				Compare(OpEq, Ident("a"), Val(1)),
				Not(Compare(OpEq, Ident("b"), Val(2))),
			)),
			want: `SELECT * FROM "people" WHERE (("a" = 1) OR NOT (("b" = 2)))`,
		},
		{
			name: "in value list",
			q:    From("people").Where(In(Ident("id"), Seq{Val(1), Val(2)})),
			want: `SELECT * FROM "people" WHERE ("id" IN (1, 2))`,
		},
		{
			name: "in subquery",
			q:    From("people").Where(In(Ident("id"), From("owners").Select("person_id"))),
			want: `SELECT * FROM "people" WHERE ("id" IN (SELECT "person_id" FROM "owners"))`,
		},
		{
			name: "group and having",
			q: From("t").Select("kind").GroupBy("kind").
				Having(Compare(OpGt, Lit("count(*)"), Val(1))),
			want: `SELECT "kind" FROM "t" GROUP BY "kind" HAVING (count(*) > 1)`,
		},
		{
			name: "order",
			q:    From("people").Order(Asc("title"), Desc("birth_year")),
			want: `SELECT * FROM "people" ORDER BY "title" ASC, "birth_year" DESC`,
		},
		{
			name: "unresolved placeholder",
			q:    From("people").Where(Place("name")),
			want: `SELECT * FROM "people" WHERE $name`,
		},
		{
			name: "empty clause skipped",
			q:    From("people").WithClause(ClauseWhere, Seq{Empty{}}),
			want: `SELECT * FROM "people"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.q))
		})
	}
}

func TestRenderer_SubqueryInFrom(t *testing.T) {
	sql := render(t, From(From("people").Where(Compare(OpEq, Ident("a"), Val(1)))))
	assert.Contains(t, sql, `FROM (SELECT * FROM "people" WHERE ("a" = 1))`)
}

func TestRenderer_Prepared(t *testing.T) {
	r := NewRenderer("postgres")
	r.Prepared = true
	sql, args, err := r.SQL(From("people").Where(Compare(OpEq, Ident("name"), Val("bob"))))
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE ("name" = $1)`, sql)
	assert.Equal(t, []any{"bob"}, args)
}

func TestRenderer_Errors(t *testing.T) {
	_, _, err := NewRenderer("").SQL(From("t").WithClause(ClauseKind("bogus"), Place("x")))
	assert.ErrorContains(t, err, "unsupported clause kind")

	_, _, err = NewRenderer("").SQL(From("t").Where(Composite{Op: OpNot}))
	assert.ErrorContains(t, err, "NOT takes 1 operand")

	_, _, err = NewRenderer("").SQL(From("t").Where(Compare(OpEq, Ident("a"), Empty{})))
	assert.ErrorContains(t, err, "takes 2 operands")

	_, _, err = NewRenderer("").SQL(nil)
	assert.Error(t, err)
}

func TestQuery_String(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "people"`, From("people").String())
}

func TestClauseKind(t *testing.T) {
	assert.True(t, ClauseWhere.IsPredicate())
	assert.True(t, ClauseHaving.IsPredicate())
	assert.False(t, ClauseOrder.IsPredicate())
	assert.True(t, ClauseGroup.Valid())
	assert.False(t, ClauseKind("bogus").Valid())
}
