package storage

import "stellarsql/catalog"

// TableMeta is the persisted catalog record for one table (spec.md §3,
// "TableMeta persists…"), grounded on
// original_source/src/storage/diskinterface.rs's TableMeta struct.
type TableMeta struct {
	Name             string                  `json:"name"`
	Username         string                  `json:"username"`
	DBName           string                  `json:"db_name"`
	PathTSV          string                  `json:"path_tsv,omitempty"`
	PathBin          string                  `json:"path_bin"`
	PrimaryKey       []string                `json:"primary_key"`
	ForeignKey       []string                `json:"foreign_key"`
	ReferenceTable   string                  `json:"reference_table,omitempty"`
	ReferenceAttr    string                  `json:"reference_attr,omitempty"`
	RowLength        uint32                  `json:"row_length"`
	Attrs            map[string]catalog.Field `json:"attrs"`
	AttrsOrder       []string                `json:"attrs_order"`
	AttrOffsetRanges [][2]uint32             `json:"attr_offset_ranges"`
}

// buildTableMeta computes the bit-exact persisted layout for a table:
// attrs_order (`__valid__` + primary key + lexicographic rest), each
// attribute's byte range, and the total row_length (spec.md §4.2 step 3).
func buildTableMeta(username, dbName string, table *catalog.Table) TableMeta {
	order := table.AttrsOrder()

	attrs := make(map[string]catalog.Field, len(table.Fields))
	for name, f := range table.Fields {
		attrs[name] = f
	}

	ranges := make([][2]uint32, len(order))
	var cursor uint32
	ranges[0] = [2]uint32{0, 1} // __valid__
	cursor = 1
	for i, attr := range order[1:] {
		width := attrs[attr].Type.ByteWidth()
		ranges[i+1] = [2]uint32{cursor, cursor + width}
		cursor += width
	}

	return TableMeta{
		Name:             table.Name,
		Username:         username,
		DBName:           dbName,
		PathBin:          table.Name + ".bin",
		PathTSV:          table.Name + ".tsv",
		PrimaryKey:       append([]string{}, table.PrimaryKey...),
		ForeignKey:       append([]string{}, table.ForeignKey...),
		ReferenceTable:   table.ReferenceTable,
		ReferenceAttr:    table.ReferenceAttr,
		RowLength:        cursor,
		Attrs:            attrs,
		AttrsOrder:       order,
		AttrOffsetRanges: ranges,
	}
}

// ToTable builds a metadata-only catalog.Table (no rows loaded) from a
// persisted TableMeta, as used by DiskStore.LoadTablesMeta /
// Worker.LoadDatabase.
func (m TableMeta) ToTable() *catalog.Table {
	t := catalog.NewTable(m.Name)
	for name, f := range m.Attrs {
		t.Fields[name] = f
		t.FieldList = append(t.FieldList, name)
	}
	t.PrimaryKey = append([]string{}, m.PrimaryKey...)
	t.ForeignKey = append([]string{}, m.ForeignKey...)
	t.ReferenceTable = m.ReferenceTable
	t.ReferenceAttr = m.ReferenceAttr
	t.IsDataLoaded = false
	return t
}
