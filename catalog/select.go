package catalog

import (
	"sort"
	"strings"

	"stellarsql/internal/xerr"
)

// Result is the JSON-shaped output of a SELECT (spec.md §4.4 select):
// the requested field names and each selected row's values in that order.
type Result struct {
	Fields []string   `json:"fields"`
	Rows   [][]string `json:"rows"`
}

// Select implements spec.md §4.4 select: if RowSet has never been
// initialized, it defaults to every row in the table. For each selected
// row index, values are emitted in fieldNames order; the result rows are
// then sorted lexicographically (spec.md §9 "Sort stability").
func (t *Table) Select(fieldNames []string) (Result, error) {
	if !t.IsPredicateInit {
		t.SetRowSet(t.FullRowSet())
	}

	for _, name := range fieldNames {
		if name == "*" {
			continue
		}
		if _, ok := t.Fields[name]; !ok {
			return Result{}, xerr.New(xerr.Select, "SelectFieldNotExisted", "field "+name+" does not exist on table "+t.Name)
		}
	}

	fields := fieldNames
	if len(fields) == 1 && fields[0] == "*" {
		fields = append([]string{}, t.FieldList...)
	}

	rows := make([][]string, 0, len(t.RowSet))
	for i := range t.RowSet {
		if i < 0 || i >= len(t.Rows) {
			continue
		}
		row := t.Rows[i]
		vals := make([]string, len(fields))
		for j, f := range fields {
			vals[j] = row.Values[f]
		}
		rows = append(rows, vals)
	}

	sort.Slice(rows, func(a, b int) bool {
		return strings.Join(rows[a], "\x00") < strings.Join(rows[b], "\x00")
	})

	return Result{Fields: fields, Rows: rows}, nil
}
