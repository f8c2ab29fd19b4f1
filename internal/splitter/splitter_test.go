package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		suffix    string
		wantField string
		wantMatch bool
	}{
		{"separated suffix", "age_gt", "gt", "age", true},
		{"multi-word suffix", "title_not_like", "not_like", "title", true},
		{"multi-word field", "birth_year_desc", "desc", "birth_year", true},
		{"no separator", "blagt", "gt", "blagt", false},
		{"whole key is suffix", "custom_predicate", "custom_predicate", "custom_predicate", true},
		{"bare separator prefix", "_gt", "gt", "_gt", false},
		{"suffix mismatch", "age_gt", "lt", "age_gt", false},
		{"suffix inside key", "gt_age", "gt", "gt_age", false},
		{"container field", "store[owner]_like", "like", "store[owner]", true},
		{"bracketed suffix letters", "store[my_gt]", "gt", "store[my_gt]", false},
		{"empty suffix", "age", "", "age", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := Split(tt.key, tt.suffix)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantMatch, ok)
		})
	}
}

func TestSplit_SeparatedFieldsAlwaysMatch(t *testing.T) {
	suffixes := []string{"eq", "gt", "like", "not_blank", "like_all"}
	fields := []string{"a", "age", "birth_year", "x_y_z", "heavens__salutation"}

	for _, s := range suffixes {
		for _, f := range fields {
			field, ok := Split(f+"_"+s, s)
			assert.True(t, ok, "%s_%s", f, s)
			assert.Equal(t, f, field)

			if f[len(f)-1] != '_' {
				_, ok = Split(f+s, s)
				assert.False(t, ok, "%s%s", f, s)
			}
		}
	}
}

func TestSplitter_RemembersDecomposition(t *testing.T) {
	s := New("age_gte")
	assert.Equal(t, "age_gte", s.Field())
	assert.Equal(t, "", s.Op())
	assert.False(t, s.Matched())

	assert.False(t, s.Split("lte"))
	assert.True(t, s.Split("gte"))
	assert.Equal(t, "age", s.Field())
	assert.Equal(t, "gte", s.Op())
	assert.Equal(t, "age_gte", s.Key())

	// a later failed probe leaves the match intact
	assert.False(t, s.Split("eq"))
	assert.Equal(t, "age", s.Field())
	assert.Equal(t, "gte", s.Op())
}
