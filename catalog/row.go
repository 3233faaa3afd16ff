package catalog

// Row maps field name to its value as source text (spec.md §3: "Row").
// Values round-trip through BytesCoder as text, never as typed Go values,
// matching the original's string-keyed row representation.
type Row struct {
	Values   map[string]string
	IsDirty  bool
	IsDelete bool
}

// NewRow creates an empty, clean row.
func NewRow() Row {
	return Row{Values: make(map[string]string)}
}

// Clone returns a deep copy of the row (used when materializing a virtual
// table during SELECT, so mutation of the VT never touches the source
// table's rows).
func (r Row) Clone() Row {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{Values: values, IsDirty: r.IsDirty, IsDelete: r.IsDelete}
}
