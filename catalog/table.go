package catalog

import "sort"

// Table is the in-memory schema + row buffer for one table, as specified
// in spec.md §3. Field storage order is irrelevant (map); PrimaryKey and
// ForeignKey preserve declaration order since they participate in the
// on-disk attribute layout and FK bookkeeping.
type Table struct {
	Name      string
	Fields    map[string]Field
	FieldList []string // declaration order via AddField; storage.TableMeta.ToTable fills it in no defined order

	PrimaryKey []string
	ForeignKey []string

	ReferenceTable string
	ReferenceAttr  string

	Rows []Row

	// RowSet is the session-local working set of physical row indices this
	// table's pending predicate/select pipeline is operating over.
	RowSet          map[int]struct{}
	IsPredicateInit bool

	IsDirty      bool
	DirtyCursor  int
	IsDelete     bool
	IsDataLoaded bool

	PublicKey int32
}

// NewTable creates an empty table definition.
func NewTable(name string) *Table {
	return &Table{
		Name:   name,
		Fields: make(map[string]Field),
		RowSet: make(map[int]struct{}),
	}
}

// AddField appends a field definition, preserving declaration order in
// FieldList while Fields remains the canonical name-keyed lookup.
func (t *Table) AddField(f Field) {
	t.Fields[f.Name] = f
	t.FieldList = append(t.FieldList, f.Name)
}

// AttrsOrder computes the persisted attribute order (spec.md §3/§4.2):
// `__valid__`, then primary-key fields in declared order, then the
// remaining fields sorted lexicographically.
func (t *Table) AttrsOrder() []string {
	order := make([]string, 0, len(t.Fields)+1)
	order = append(order, "__valid__")
	seen := make(map[string]struct{}, len(t.Fields))
	for _, pk := range t.PrimaryKey {
		order = append(order, pk)
		seen[pk] = struct{}{}
	}
	rest := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		if _, ok := seen[name]; ok {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	order = append(order, rest...)
	return order
}

// FullRowSet returns the set of every row index in the table's currently
// loaded Rows slice. Loaded rows never include a tombstoned record:
// storage.DiskStore.FetchRows fails with RangeContainsDeletedRecord
// rather than skipping one.
func (t *Table) FullRowSet() map[int]struct{} {
	set := make(map[int]struct{}, len(t.Rows))
	for i := range t.Rows {
		set[i] = struct{}{}
	}
	return set
}

// SetRowSet replaces RowSet and marks the predicate pipeline initialized
// (spec.md §4.4 set_row_set).
func (t *Table) SetRowSet(set map[int]struct{}) {
	t.RowSet = set
	t.IsPredicateInit = true
}

// Clone makes a shallow-copy-of-structure, deep-copy-of-rows working
// table, used by Worker.Select to build the virtual table for a FROM
// clause without mutating the session's persistent Table.
func (t *Table) Clone() *Table {
	clone := &Table{
		Name:            t.Name,
		Fields:          t.Fields,
		FieldList:       t.FieldList,
		PrimaryKey:      t.PrimaryKey,
		ForeignKey:      t.ForeignKey,
		ReferenceTable:  t.ReferenceTable,
		ReferenceAttr:   t.ReferenceAttr,
		RowSet:          make(map[int]struct{}),
		IsPredicateInit: false,
		PublicKey:       t.PublicKey,
	}
	clone.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		clone.Rows[i] = r.Clone()
	}
	return clone
}
