package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
)

func numberedTable(t *testing.T, nullable bool) *catalog.Table {
	t.Helper()
	tbl := catalog.NewTable("widgets")
	tbl.PrimaryKey = []string{"a1"}
	tbl.AddField(catalog.NewField("a1", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	tbl.AddField(catalog.NewField("a2", catalog.DataType{Kind: catalog.KindVarchar, Length: 10}, nullable, nil, false))

	rows := []struct{ a1, a2 string }{
		{"1", "'aaa'"},
		{"2", "'bbb'"},
		{"3", "null"},
	}
	for _, r := range rows {
		row := catalog.NewRow()
		row.Values["a1"] = r.a1
		row.Values["a2"] = r.a2
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func TestOperatorFilterRowsComparison(t *testing.T) {
	tbl := numberedTable(t, true)
	set, err := tbl.OperatorFilterRows("a1", ">", "1")
	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{1: {}, 2: {}}, set)
}

func TestOperatorFilterRowsUnknownField(t *testing.T) {
	tbl := numberedTable(t, true)
	_, err := tbl.OperatorFilterRows("nope", "=", "1")
	require.Error(t, err)
}

// TestOperatorFilterRowsIsNull exercises spec.md §11.2's unary IS NULL
// check directly against the catalog layer.
func TestOperatorFilterRowsIsNull(t *testing.T) {
	tbl := numberedTable(t, true)
	set, err := tbl.OperatorFilterRows("a2", "is null", "")
	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{2: {}}, set)
}

func TestOperatorFilterRowsIsNotNull(t *testing.T) {
	tbl := numberedTable(t, true)
	set, err := tbl.OperatorFilterRows("a2", "is not null", "")
	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{0: {}, 1: {}}, set)
}
