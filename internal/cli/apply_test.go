package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djellemah/philtre/internal/testutil"
)

func TestApply_Golden(t *testing.T) {
	out, _, err := execute(t, "apply", "people", "--params", testdata("apply.yaml"))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "apply_text", []byte(out))
}

func TestApply_JSON(t *testing.T) {
	out, _, err := execute(t, "apply", "people", "--params", testdata("apply.yaml"), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"name_like", "birth_year_gte"}, resp.Data.Predicates)
	assert.Equal(t, []string{"name_desc"}, resp.Data.Order)
	assert.Contains(t, resp.Data.SQL, `ORDER BY "name" DESC`)
}

func TestApply_NoParams(t *testing.T) {
	out, _, err := execute(t, "apply", "people")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM \"people\"\n", out)
}

func TestApply_BlankValuesSkipped(t *testing.T) {
	out, _, err := execute(t, "apply", "people", "--set", "name=", "--set", "title_not_eq=sir")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM \"people\" WHERE (\"title\" != 'sir')\n", out)
}

func TestApply_SetOverridesParams(t *testing.T) {
	out, _, err := execute(t, "apply", "people", "--params", testdata("apply.yaml"), "--set", "order=birth_year")
	require.NoError(t, err)
	assert.Contains(t, out, `ORDER BY "birth_year" ASC`)
	assert.NotContains(t, out, `"name" DESC`)
}

func TestApply_ContainerField(t *testing.T) {
	out, _, err := execute(t, "apply", "stores", "--set", "attrs[owner]=bob")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM \"stores\" WHERE (\"attrs\" @> hstore('owner', 'bob'))\n", out)
}

func TestApply_SQLitePatternPredicates(t *testing.T) {
	db := testutil.People(t)

	out, _, err := execute(t, "apply", "people", "--set", "name_like=AN", "--set", "order=id", "--dialect", "sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `people` WHERE (`name` REGEXP 'AN') ORDER BY `id` ASC\n", out)
	assert.Equal(t, []string{"1"}, testutil.QueryColumn(t, db, strings.TrimSpace(out)))

	out, _, err = execute(t, "apply", "people", "--set", "name_not_like=n", "--set", "order=id", "--dialect", "sqlite3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "4"}, testutil.QueryColumn(t, db, strings.TrimSpace(out)))
}

func TestApply_Errors(t *testing.T) {
	out, _, err := execute(t, "apply", "people", "--dialect", "oracle")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")

	_, _, err = execute(t, "apply")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
