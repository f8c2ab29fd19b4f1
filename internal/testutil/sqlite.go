// Package testutil provides fixtures shared by tests across packages.
package testutil

import (
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/djellemah/philtre/internal/query"
)

// DriverName is the sqlite3 driver with a REGEXP function installed.
// SQLite parses "x REGEXP y" but ships no implementation of it, and the
// sqlite3 dialect renders the pattern predicates (like, cont, start, ...)
// with REGEXP.
const DriverName = "sqlite3_regexp"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

// regexpMatch backs "s REGEXP pattern". Matching is case-insensitive, like
// the postgres ~* the predicates are written for. NULL never matches.
func regexpMatch(pattern string, s any) (bool, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false, err
	}
	switch v := s.(type) {
	case nil:
		return false, nil
	case string:
		return re.MatchString(v), nil
	case []byte:
		if v == nil {
			return false, nil
		}
		return re.Match(v), nil
	default:
		return re.MatchString(fmt.Sprint(v)), nil
	}
}

// PeopleSchema creates and fills the people table used by execution tests.
var PeopleSchema = []string{
	`CREATE TABLE people (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		birth_year INTEGER,
		title TEXT
	)`,
	`INSERT INTO people (id, name, birth_year, title) VALUES
		(1, 'ann', 2010, 'dr'),
		(2, 'bob', 2011, 'sir'),
		(3, 'cid', 2012, 'sir'),
		(4, 'dee', 2012, NULL)`,
}

// OpenSQLite opens a private in-memory database and runs stmts in order.
// The database is closed when the test ends.
//
// The database is configured with:
//   - a single connection, since each connection to ":memory:" is its own database
//   - a case-insensitive REGEXP function
//   - a 5-second busy timeout
//   - foreign key enforcement
func OpenSQLite(t testing.TB, stmts ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, stmt := range append(pragmas, stmts...) {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

// People opens an in-memory database holding PeopleSchema.
func People(t testing.TB) *sql.DB {
	t.Helper()
	return OpenSQLite(t, PeopleSchema...)
}

// Column renders q for sqlite3 with bind parameters, runs it on db, and
// returns the first column of every row as a string. NULL reads as "".
func Column(t testing.TB, db *sql.DB, q *query.Query) []string {
	t.Helper()
	r := &query.Renderer{Dialect: "sqlite3", Prepared: true}
	stmt, args, err := r.SQL(q)
	require.NoError(t, err)
	return QueryColumn(t, db, stmt, args...)
}

// QueryColumn runs stmt on db and returns the first column of every row.
func QueryColumn(t testing.TB, db *sql.DB, stmt string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(stmt, args...)
	require.NoError(t, err, stmt)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var out []string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		out = append(out, values[0].String)
	}
	require.NoError(t, rows.Err())
	return out
}
