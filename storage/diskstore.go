// Package storage implements DiskInterface (spec.md §4.2): the
// hierarchical on-disk namespace username -> database -> table, backed by
// JSON catalogs and fixed-width binary row files. Grounded on
// original_source/src/storage/diskinterface.rs.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"stellarsql/catalog"
	"stellarsql/codec"
	"stellarsql/internal/xerr"
)

// DiskStore is the on-disk backing store for every username/database/table
// StellarSQL knows about.
type DiskStore struct {
	BasePath  string
	EnableTSV bool
}

// New returns a DiskStore rooted at basePath.
func New(basePath string, enableTSV bool) *DiskStore {
	return &DiskStore{BasePath: basePath, EnableTSV: enableTSV}
}

type nameEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// nameList is the shared JSON shape for usernames.json and dbs.json
// (spec.md §3: "dbs.json … (same shape)").
type nameList struct {
	Usernames []nameEntry `json:"usernames"`
}

func storageErr(code, msg string) error {
	return xerr.New(xerr.Storage, code, msg)
}

func ioErr(err error) error {
	return xerr.Wrap(xerr.Storage, "Io", err)
}

func jsonErr(err error) error {
	return xerr.Wrap(xerr.Storage, "JsonParse", err)
}

func (ds *DiskStore) usernamesJSONPath() string {
	return filepath.Join(ds.BasePath, "usernames.json")
}

func (ds *DiskStore) userDir(username string) string {
	return filepath.Join(ds.BasePath, username)
}

func (ds *DiskStore) dbsJSONPath(username string) string {
	return filepath.Join(ds.userDir(username), "dbs.json")
}

func (ds *DiskStore) dbDir(username, db string) string {
	return filepath.Join(ds.userDir(username), db)
}

func (ds *DiskStore) tablesJSONPath(username, db string) string {
	return filepath.Join(ds.dbDir(username, db), "tables.json")
}

func (ds *DiskStore) tableBinPath(username, db, table string) string {
	return filepath.Join(ds.dbDir(username, db), table+".bin")
}

func (ds *DiskStore) tableTSVPath(username, db, table string) string {
	return filepath.Join(ds.dbDir(username, db), table+".tsv")
}

// TableBinPath returns the path to a table's fixed-width row file, for use
// by the index package when building an index directly from storage.
func (ds *DiskStore) TableBinPath(username, db, table string) string {
	return ds.tableBinPath(username, db, table)
}

// TableIdxPath returns the path to a table's primary-key index file
// (<T>_<pk>.idx).
func (ds *DiskStore) TableIdxPath(username, db, table, pkAttr string) string {
	return filepath.Join(ds.dbDir(username, db), table+"_"+pkAttr+".idx")
}

func readNameList(path string, notExistsCode string) (nameList, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nameList{}, storageErr(notExistsCode, path+" does not exist")
		}
		return nameList{}, ioErr(err)
	}
	var nl nameList
	if err := json.Unmarshal(b, &nl); err != nil {
		return nameList{}, jsonErr(err)
	}
	return nl, nil
}

func writeNameList(path string, nl nameList) error {
	b, err := json.MarshalIndent(nl, "", "  ")
	if err != nil {
		return jsonErr(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return ioErr(err)
	}
	return nil
}

func readTablesJSON(path string) ([]TableMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storageErr("TablesJsonNotExists", path+" does not exist")
		}
		return nil, ioErr(err)
	}
	var metas []TableMeta
	if err := json.Unmarshal(b, &metas); err != nil {
		return nil, jsonErr(err)
	}
	return metas, nil
}

func writeTablesJSON(path string, metas []TableMeta) error {
	b, err := json.MarshalIndent(metas, "", "  ")
	if err != nil {
		return jsonErr(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return ioErr(err)
	}
	return nil
}

// CreateFileBase creates BasePath and an empty usernames.json. It fails
// with BaseDirExists if BasePath already exists.
func (ds *DiskStore) CreateFileBase() error {
	if _, err := os.Stat(ds.BasePath); err == nil {
		return storageErr("BaseDirExists", ds.BasePath+" already exists")
	}
	if err := os.MkdirAll(ds.BasePath, 0o755); err != nil {
		return ioErr(err)
	}
	return writeNameList(ds.usernamesJSONPath(), nameList{Usernames: []nameEntry{}})
}

// StorageCheck validates that base/usernames.json exist, and, for each
// non-empty argument, that the corresponding level is registered and its
// directory present. An empty db or table stops the check at that depth.
func (ds *DiskStore) StorageCheck(username, db, table string) error {
	if _, err := os.Stat(ds.BasePath); err != nil {
		return storageErr("BaseDirNotExists", ds.BasePath+" does not exist")
	}
	if _, err := os.Stat(ds.usernamesJSONPath()); err != nil {
		return storageErr("UsernamesJsonNotExists", "usernames.json does not exist")
	}
	if username == "" {
		return nil
	}
	nl, err := readNameList(ds.usernamesJSONPath(), "UsernamesJsonNotExists")
	if err != nil {
		return err
	}
	if !containsName(nl, username) {
		return storageErr("UsernameNotExists", "username "+username+" not registered")
	}
	if _, err := os.Stat(ds.userDir(username)); err != nil {
		return storageErr("UsernameDirNotExists", ds.userDir(username)+" does not exist")
	}
	if db == "" {
		return nil
	}
	if _, err := os.Stat(ds.dbsJSONPath(username)); err != nil {
		return storageErr("DbsJsonNotExists", "dbs.json does not exist")
	}
	dl, err := readNameList(ds.dbsJSONPath(username), "DbsJsonNotExists")
	if err != nil {
		return err
	}
	if !containsName(dl, db) {
		return storageErr("DbNotExists", "database "+db+" not registered")
	}
	if _, err := os.Stat(ds.dbDir(username, db)); err != nil {
		return storageErr("DbDirNotExists", ds.dbDir(username, db)+" does not exist")
	}
	if table == "" {
		return nil
	}
	metas, err := readTablesJSON(ds.tablesJSONPath(username, db))
	if err != nil {
		return err
	}
	for _, m := range metas {
		if m.Name == table {
			return nil
		}
	}
	return storageErr("TableNotExists", "table "+table+" not registered")
}

func containsName(nl nameList, name string) bool {
	for _, e := range nl.Usernames {
		if e.Name == name {
			return true
		}
	}
	return false
}

// CreateUsername registers a new user and creates its directory + empty
// dbs.json.
func (ds *DiskStore) CreateUsername(username string) error {
	if err := ds.StorageCheck("", "", ""); err != nil {
		return err
	}
	nl, err := readNameList(ds.usernamesJSONPath(), "UsernamesJsonNotExists")
	if err != nil {
		return err
	}
	if containsName(nl, username) {
		return storageErr("UsernameExists", "username "+username+" already exists")
	}
	dir := ds.userDir(username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioErr(err)
	}
	if err := writeNameList(ds.dbsJSONPath(username), nameList{Usernames: []nameEntry{}}); err != nil {
		return err
	}
	nl.Usernames = append(nl.Usernames, nameEntry{Name: username, Path: dir})
	return writeNameList(ds.usernamesJSONPath(), nl)
}

// GetUsernames returns every registered username.
func (ds *DiskStore) GetUsernames() ([]string, error) {
	if err := ds.StorageCheck("", "", ""); err != nil {
		return nil, err
	}
	nl, err := readNameList(ds.usernamesJSONPath(), "UsernamesJsonNotExists")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(nl.Usernames))
	for i, e := range nl.Usernames {
		names[i] = e.Name
	}
	return names, nil
}

// RemoveUsername deregisters a user and deletes its directory tree.
func (ds *DiskStore) RemoveUsername(username string) error {
	if err := ds.StorageCheck(username, "", ""); err != nil {
		return err
	}
	nl, err := readNameList(ds.usernamesJSONPath(), "UsernamesJsonNotExists")
	if err != nil {
		return err
	}
	out := nl.Usernames[:0]
	for _, e := range nl.Usernames {
		if e.Name != username {
			out = append(out, e)
		}
	}
	nl.Usernames = out
	if err := os.RemoveAll(ds.userDir(username)); err != nil {
		return ioErr(err)
	}
	return writeNameList(ds.usernamesJSONPath(), nl)
}

// CreateDB registers a new database for username and creates its directory
// + empty tables.json.
func (ds *DiskStore) CreateDB(username, db string) error {
	if err := ds.StorageCheck(username, "", ""); err != nil {
		return err
	}
	dl, err := readNameList(ds.dbsJSONPath(username), "DbsJsonNotExists")
	if err != nil {
		return err
	}
	if containsName(dl, db) {
		return storageErr("DbExists", "database "+db+" already exists")
	}
	dir := ds.dbDir(username, db)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioErr(err)
	}
	if err := writeTablesJSON(ds.tablesJSONPath(username, db), []TableMeta{}); err != nil {
		return err
	}
	dl.Usernames = append(dl.Usernames, nameEntry{Name: db, Path: dir})
	return writeNameList(ds.dbsJSONPath(username), dl)
}

// GetDBs returns every database registered under username.
func (ds *DiskStore) GetDBs(username string) ([]string, error) {
	if err := ds.StorageCheck(username, "", ""); err != nil {
		return nil, err
	}
	dl, err := readNameList(ds.dbsJSONPath(username), "DbsJsonNotExists")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(dl.Usernames))
	for i, e := range dl.Usernames {
		names[i] = e.Name
	}
	return names, nil
}

// RemoveDB deregisters a database and deletes its directory tree.
func (ds *DiskStore) RemoveDB(username, db string) error {
	if err := ds.StorageCheck(username, db, ""); err != nil {
		return err
	}
	dl, err := readNameList(ds.dbsJSONPath(username), "DbsJsonNotExists")
	if err != nil {
		return err
	}
	out := dl.Usernames[:0]
	for _, e := range dl.Usernames {
		if e.Name != db {
			out = append(out, e)
		}
	}
	dl.Usernames = out
	if err := os.RemoveAll(ds.dbDir(username, db)); err != nil {
		return ioErr(err)
	}
	return writeNameList(ds.dbsJSONPath(username), dl)
}

// CreateTable registers table's metadata in tables.json and creates its
// empty .bin (and, if enabled, .tsv) row file.
func (ds *DiskStore) CreateTable(username, db string, table *catalog.Table) error {
	if err := ds.StorageCheck(username, db, ""); err != nil {
		return err
	}
	metas, err := readTablesJSON(ds.tablesJSONPath(username, db))
	if err != nil {
		return err
	}
	for _, m := range metas {
		if m.Name == table.Name {
			return storageErr("TableExists", "table "+table.Name+" already exists")
		}
	}
	meta := buildTableMeta(username, db, table)
	binPath := ds.tableBinPath(username, db, table.Name)
	if err := os.WriteFile(binPath, []byte{}, 0o644); err != nil {
		return ioErr(err)
	}
	if ds.EnableTSV {
		tsvPath := ds.tableTSVPath(username, db, table.Name)
		if err := os.WriteFile(tsvPath, []byte{}, 0o644); err != nil {
			return ioErr(err)
		}
	}
	metas = append(metas, meta)
	return writeTablesJSON(ds.tablesJSONPath(username, db), metas)
}

// GetTables returns every table name registered under username/db.
func (ds *DiskStore) GetTables(username, db string) ([]string, error) {
	if err := ds.StorageCheck(username, db, ""); err != nil {
		return nil, err
	}
	metas, err := readTablesJSON(ds.tablesJSONPath(username, db))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names, nil
}

// LoadTablesMeta returns every table's persisted metadata for username/db.
func (ds *DiskStore) LoadTablesMeta(username, db string) ([]TableMeta, error) {
	if err := ds.StorageCheck(username, db, ""); err != nil {
		return nil, err
	}
	return readTablesJSON(ds.tablesJSONPath(username, db))
}

// LoadTableMeta returns one table's persisted metadata.
func (ds *DiskStore) LoadTableMeta(username, db, table string) (TableMeta, error) {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return TableMeta{}, err
	}
	metas, err := readTablesJSON(ds.tablesJSONPath(username, db))
	if err != nil {
		return TableMeta{}, err
	}
	for _, m := range metas {
		if m.Name == table {
			return m, nil
		}
	}
	return TableMeta{}, storageErr("TableNotExists", "table "+table+" not registered")
}

// DropTable removes table's metadata entry and deletes its row files.
func (ds *DiskStore) DropTable(username, db, table string) error {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return err
	}
	metas, err := readTablesJSON(ds.tablesJSONPath(username, db))
	if err != nil {
		return err
	}
	out := metas[:0]
	for _, m := range metas {
		if m.Name != table {
			out = append(out, m)
		}
	}
	if err := os.Remove(ds.tableBinPath(username, db, table)); err != nil && !os.IsNotExist(err) {
		return ioErr(err)
	}
	if ds.EnableTSV {
		_ = os.Remove(ds.tableTSVPath(username, db, table))
	}
	return writeTablesJSON(ds.tablesJSONPath(username, db), out)
}

// rowCount returns the number of fixed-width records currently in a
// table's .bin file.
func (ds *DiskStore) rowCount(meta TableMeta, username, db, table string) (uint32, error) {
	fi, err := os.Stat(ds.tableBinPath(username, db, table))
	if err != nil {
		return 0, storageErr("TableBinNotExists", err.Error())
	}
	if meta.RowLength == 0 {
		return 0, nil
	}
	return uint32(fi.Size()) / meta.RowLength, nil
}

// RowCount returns the number of physical records (including tombstones)
// currently stored for table.
func (ds *DiskStore) RowCount(username, db, table string, meta TableMeta) (uint32, error) {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return 0, err
	}
	return ds.rowCount(meta, username, db, table)
}

// AppendRows encodes and appends rows to table's .bin file, in order.
func (ds *DiskStore) AppendRows(username, db, table string, meta TableMeta, rows []catalog.Row) error {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return err
	}
	buf := make([]byte, 0, len(rows)*int(meta.RowLength))
	for _, row := range rows {
		b, err := codec.RowToBytes(meta.AttrsOrder, meta.Attrs, row)
		if err != nil {
			return err
		}
		buf = append(buf, b...)
	}
	f, err := os.OpenFile(ds.tableBinPath(username, db, table), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return storageErr("TableBinNotExists", err.Error())
	}
	defer f.Close()
	if _, err := f.Write(buf); err != nil {
		return ioErr(err)
	}
	return nil
}

// FetchRows decodes records in the half-open range [lo, hi) from table's
// .bin file. Encountering a tombstoned record is RangeContainsDeletedRecord.
func (ds *DiskStore) FetchRows(username, db, table string, meta TableMeta, lo, hi uint32) ([]catalog.Row, error) {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return nil, err
	}
	total, err := ds.rowCount(meta, username, db, table)
	if err != nil {
		return nil, err
	}
	if hi > total {
		return nil, storageErr("RangeExceedLatestRecord", "requested range exceeds stored record count")
	}
	f, err := os.Open(ds.tableBinPath(username, db, table))
	if err != nil {
		return nil, storageErr("TableBinNotExists", err.Error())
	}
	defer f.Close()

	n := int(hi - lo)
	buf := make([]byte, n*int(meta.RowLength))
	if _, err := f.ReadAt(buf, int64(lo)*int64(meta.RowLength)); err != nil {
		return nil, ioErr(err)
	}

	rows := make([]catalog.Row, 0, n)
	for i := 0; i < n; i++ {
		rec := buf[i*int(meta.RowLength) : (i+1)*int(meta.RowLength)]
		if rec[0] == 0 {
			return nil, storageErr("RangeContainsDeletedRecord", "requested range includes a deleted record")
		}
		row, err := codec.BytesToRow(meta.AttrsOrder, meta.AttrOffsetRanges, meta.Attrs, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteRows tombstones records in the half-open range [lo, hi) by zeroing
// their `__valid__` byte. The range is validated in full (any tombstoned
// or unreadable record) before anything is written.
func (ds *DiskStore) DeleteRows(username, db, table string, meta TableMeta, lo, hi uint32) error {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return err
	}
	total, err := ds.rowCount(meta, username, db, table)
	if err != nil {
		return err
	}
	if hi > total {
		return storageErr("RangeExceedLatestRecord", "requested range exceeds stored record count")
	}
	f, err := os.OpenFile(ds.tableBinPath(username, db, table), os.O_RDWR, 0o644)
	if err != nil {
		return storageErr("TableBinNotExists", err.Error())
	}
	defer f.Close()

	flag := make([]byte, 1)
	for i := lo; i < hi; i++ {
		if _, err := f.ReadAt(flag, int64(i)*int64(meta.RowLength)); err != nil {
			return ioErr(err)
		}
		if flag[0] == 0 {
			return storageErr("RangeContainsDeletedRecord", "requested range includes a deleted record")
		}
	}

	zero := []byte{0}
	for i := lo; i < hi; i++ {
		if _, err := f.WriteAt(zero, int64(i)*int64(meta.RowLength)); err != nil {
			return ioErr(err)
		}
	}
	return nil
}

// ModifyRows overwrites records in the half-open range [lo, hi) with
// newRows, all-or-nothing: every row is encoded and the range validated
// before anything is written.
func (ds *DiskStore) ModifyRows(username, db, table string, meta TableMeta, lo, hi uint32, newRows []catalog.Row) error {
	if err := ds.StorageCheck(username, db, table); err != nil {
		return err
	}
	if uint32(len(newRows)) != hi-lo {
		return storageErr("RangeAndNumRowsMismatch", "number of replacement rows does not match range size")
	}
	total, err := ds.rowCount(meta, username, db, table)
	if err != nil {
		return err
	}
	if hi > total {
		return storageErr("RangeExceedLatestRecord", "requested range exceeds stored record count")
	}

	f0, err := os.OpenFile(ds.tableBinPath(username, db, table), os.O_RDONLY, 0o644)
	if err != nil {
		return storageErr("TableBinNotExists", err.Error())
	}
	flag := make([]byte, 1)
	for i := lo; i < hi; i++ {
		if _, err := f0.ReadAt(flag, int64(i)*int64(meta.RowLength)); err != nil {
			f0.Close()
			return ioErr(err)
		}
		if flag[0] == 0 {
			f0.Close()
			return storageErr("RangeContainsDeletedRecord", "requested range includes a deleted record")
		}
	}
	f0.Close()

	buf := make([]byte, 0, len(newRows)*int(meta.RowLength))
	for _, row := range newRows {
		b, err := codec.RowToBytes(meta.AttrsOrder, meta.Attrs, row)
		if err != nil {
			return err
		}
		buf = append(buf, b...)
	}

	f, err := os.OpenFile(ds.tableBinPath(username, db, table), os.O_RDWR, 0o644)
	if err != nil {
		return storageErr("TableBinNotExists", err.Error())
	}
	defer f.Close()
	if _, err := f.WriteAt(buf, int64(lo)*int64(meta.RowLength)); err != nil {
		return ioErr(err)
	}
	return nil
}
