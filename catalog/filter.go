package catalog

import (
	"strconv"

	"stellarsql/internal/xerr"
)

// OperatorFilterRows implements spec.md §4.4 operator_filter_rows: a
// lazy, first-pass filter over the table's current RowSet (the full row
// set on first use), comparing field against literal under op and
// returning the subset of row indices satisfying the comparison. op may
// also be the unary "is null"/"is not null" checks (spec.md §11.2), in
// which case literal is ignored and the field's type is never consulted
// — NULL is stored as the literal text "null" regardless of type.
//
// Per spec.md §9, the IsPredicateInit latch is intentionally NOT set
// here — callers that need the result to stick call SetRowSet.
func (t *Table) OperatorFilterRows(field, op, literal string) (map[int]struct{}, error) {
	base := t.RowSet
	if !t.IsPredicateInit {
		base = t.FullRowSet()
	}

	fdef, ok := t.Fields[field]
	if !ok {
		return nil, xerr.New(xerr.Semantic, "FieldNotExisted", "field "+field+" does not exist on table "+t.Name)
	}

	out := make(map[int]struct{}, len(base))
	for i := range base {
		if i < 0 || i >= len(t.Rows) {
			continue
		}
		row := t.Rows[i]

		var match bool
		var err error
		switch op {
		case "is null":
			match = row.Values[field] == "null"
		case "is not null":
			match = row.Values[field] != "null"
		default:
			match, err = compareAttr(fdef.Type, row.Values[field], literal, op)
		}
		if err != nil {
			return nil, err
		}
		if match {
			out[i] = struct{}{}
		}
	}
	return out, nil
}

func compareAttr(dtype DataType, lhs, rhs, op string) (bool, error) {
	var cmp int
	switch dtype.Kind {
	case KindInt:
		a, err := strconv.ParseInt(lhs, 10, 32)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseInt", err)
		}
		b, err := strconv.ParseInt(rhs, 10, 32)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseInt", err)
		}
		cmp = compareInt64(a, b)
	case KindFloat:
		a, err := strconv.ParseFloat(lhs, 32)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		b, err := strconv.ParseFloat(rhs, 32)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		cmp = compareFloat64(a, b)
	case KindDouble:
		a, err := strconv.ParseFloat(lhs, 64)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		b, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		cmp = compareFloat64(a, b)
	case KindChar, KindVarchar:
		switch {
		case lhs < rhs:
			cmp = -1
		case lhs > rhs:
			cmp = 1
		default:
			cmp = 0
		}
	default:
		return false, xerr.New(xerr.Semantic, "UnknownType", "unknown data type in predicate comparison")
	}

	switch op {
	case "=":
		return cmp == 0, nil
	case "!=", "<>":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, xerr.New(xerr.Semantic, "UnknownOperator", "unknown predicate operator "+op)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
