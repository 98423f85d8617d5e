package kvp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 32, c.Len())

	fields := c.Fields()
	assert.Equal(t, Field{Label: "rank display", Expr: "s.overall_rank_display::text", Type: TypeStr}, fields[0])
	assert.Equal(t, Field{Label: "i4", Expr: "s.i4::text", Type: TypeFloat}, fields[len(fields)-1])

	names := c.Names()
	assert.Contains(t, names, "frank display")
	assert.Contains(t, names, "fteaching score")

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate field %s", n)
		seen[n] = true
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	c := Default()
	fields := c.Fields()
	fields[0].Label = "mutated"
	assert.Equal(t, "rank display", c.Fields()[0].Label)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"empty", "[]", "empty"},
		{"duplicate label", "- {label: t1, expr: \"s.t1::text\", type: float}\n- {label: t1, expr: \"s.t2::text\", type: float}", "duplicate"},
		{"unknown type", "- {label: t1, expr: \"s.t1::text\", type: int}", "unknown type"},
		{"missing expr", "- {label: t1, type: float}", "empty expression"},
		{"missing label", "- {expr: \"s.t1::text\", type: float}", "empty label"},
		{"quoted label", "- {label: \"t1'\", expr: \"s.t1::text\", type: float}", "quotes"},
		{"not a list", "label: t1", "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse([]byte("[]")) })
}
