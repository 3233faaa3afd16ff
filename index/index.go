package index

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"

	"stellarsql/internal/xerr"
	"stellarsql/storage"
)

func ioWrap(err error) error {
	return xerr.Wrap(xerr.Storage, "Io", err)
}

func storageErrNotFound(attr string) error {
	return xerr.New(xerr.Storage, "AttrNotExists", "primary key attribute "+attr+" not found in table metadata")
}

// Entry is one (physical row index, primary-key bytes) pair.
type Entry struct {
	RowIndex uint32
	PKBytes  []byte
}

// Index is the flat, sorted-by-key primary-key index over one table
// (spec.md §4.3). NumRows is the total physical record count the index
// was built over, tombstones included.
type Index struct {
	TableName string
	PKAttr    string
	Entries   []Entry
	NumRows   uint32
}

// BuildFromBin scans the table's .bin file through ds, in physical row
// order, skipping tombstoned records, then sorts the surviving entries by
// raw primary-key bytes.
func BuildFromBin(ds *storage.DiskStore, username, db, table, pkAttr string) (*Index, error) {
	meta, err := ds.LoadTableMeta(username, db, table)
	if err != nil {
		return nil, err
	}

	pkOffset := -1
	for i, attr := range meta.AttrsOrder {
		if attr == pkAttr {
			pkOffset = i
			break
		}
	}
	if pkOffset < 0 {
		return nil, storageErrNotFound(pkAttr)
	}
	rng := meta.AttrOffsetRanges[pkOffset]

	raw, err := os.ReadFile(ds.TableBinPath(username, db, table))
	if err != nil {
		return nil, ioWrap(err)
	}

	recLen := int(meta.RowLength)
	numRows := uint32(0)
	if recLen > 0 {
		numRows = uint32(len(raw)) / uint32(recLen)
	}

	entries := make([]Entry, 0, numRows)
	for i := uint32(0); i < numRows; i++ {
		rec := raw[int(i)*recLen : (int(i)+1)*recLen]
		if rec[0] == 0 {
			continue
		}
		pk := append([]byte{}, rec[rng[0]:rng[1]]...)
		entries = append(entries, Entry{RowIndex: i, PKBytes: pk})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].PKBytes, entries[j].PKBytes) < 0
	})

	return &Index{TableName: table, PKAttr: pkAttr, Entries: entries, NumRows: numRows}, nil
}

// Insert adds a new (rowIndex, pkBytes) pair, keeping Entries sorted. It
// fails DuplicatedKey if an entry with an equal key already exists
// (spec.md §4.3).
func (idx *Index) Insert(rowIndex uint32, pkBytes []byte) error {
	pos := sort.Search(len(idx.Entries), func(i int) bool {
		return bytes.Compare(idx.Entries[i].PKBytes, pkBytes) >= 0
	})
	if pos < len(idx.Entries) && bytes.Equal(idx.Entries[pos].PKBytes, pkBytes) {
		return xerr.New(xerr.Insert, "DuplicatedKey", "primary key already exists")
	}
	idx.Entries = append(idx.Entries, Entry{})
	copy(idx.Entries[pos+1:], idx.Entries[pos:])
	idx.Entries[pos] = Entry{RowIndex: rowIndex, PKBytes: pkBytes}
	idx.NumRows++
	return nil
}

// Save writes the index as `<row_index:u32 BE><pk_bytes>` tuples to
// <T>_<pk>.idx.
func (idx *Index) Save(ds *storage.DiskStore, username, db string) error {
	var buf bytes.Buffer
	for _, e := range idx.Entries {
		var rowBuf [4]byte
		binary.BigEndian.PutUint32(rowBuf[:], e.RowIndex)
		buf.Write(rowBuf[:])
		buf.Write(e.PKBytes)
	}
	return os.WriteFile(ds.TableIdxPath(username, db, idx.TableName, idx.PKAttr), buf.Bytes(), 0o644)
}

// Load reads an index previously written by Save. pkWidth is the byte
// width of the primary key's declared DataType. The .idx file holds no
// record count, so the loaded NumRows is the number of entries read;
// tombstoned rows are not counted.
func Load(ds *storage.DiskStore, username, db, table, pkAttr string, pkWidth uint32) (*Index, error) {
	raw, err := os.ReadFile(ds.TableIdxPath(username, db, table, pkAttr))
	if err != nil {
		return nil, ioWrap(err)
	}
	recLen := int(4 + pkWidth)
	n := 0
	if recLen > 0 {
		n = len(raw) / recLen
	}
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		rec := raw[i*recLen : (i+1)*recLen]
		rowIndex := binary.BigEndian.Uint32(rec[0:4])
		pk := append([]byte{}, rec[4:]...)
		entries = append(entries, Entry{RowIndex: rowIndex, PKBytes: pk})
	}
	return &Index{TableName: table, PKAttr: pkAttr, Entries: entries, NumRows: uint32(len(entries))}, nil
}
