// Package worker implements the SQL session object (spec.md §4.7): a
// Worker holds one user, one active database, the last parsed QueryData,
// and the last SELECT's result JSON. It executes DDL/DML by mutating its
// Database directly and evaluates SELECT via predicate-tree traversal and
// row-set algebra over in-memory rows, loading rows from disk lazily
// through storage.DiskStore. Grounded on
// original_source/src/sql/worker.rs (skeletal) and spec.md §4.4/§4.7.
package worker

import (
	"encoding/json"

	"stellarsql/catalog"
	"stellarsql/internal/xerr"
	"stellarsql/sql/parser"
	"stellarsql/storage"
)

// EncryptFunc is the encryption hook contract from spec.md §4.4/§9:
// encrypt(public_key, plaintext) -> ciphertext. The primitive itself is
// unspecified; StellarSQL ships an identity hook by default (Worker.New
// passes nil, which catalog.Table.InsertRow treats as "store as given").
type EncryptFunc func(publicKey int32, plaintext string) string

// Worker is one client session (spec.md §3 "Session").
type Worker struct {
	User       *catalog.User
	Database   *catalog.Database
	QueryData  *parser.QueryData
	ResultJSON string

	Store   *storage.DiskStore
	Encrypt EncryptFunc
}

// New creates a Worker for user, backed by store for lazy row loads.
func New(user *catalog.User, store *storage.DiskStore) *Worker {
	return &Worker{User: user, Store: store}
}

func semanticErr(code, msg string) error {
	return xerr.New(xerr.Semantic, code, msg)
}

// CreateDatabase replaces w.Database with a fresh, empty, dirty database
// (spec.md §4.7 create_database). It exists only in memory until the
// pool's hierarchicCheck flush persists it.
func (w *Worker) CreateDatabase(name string) error {
	w.Database = catalog.NewDatabase(name)
	return nil
}

// LoadDatabase populates w.Database with metadata-only tables read from
// disk via tables.json (spec.md §4.7 load_database). Rows are loaded lazily
// per table, on first SELECT (see ensureRowsLoaded).
func (w *Worker) LoadDatabase(name string) error {
	metas, err := w.Store.LoadTablesMeta(w.User.Name, name)
	if err != nil {
		return xerr.Wrap(xerr.Storage, "LoadDatabase", err)
	}
	db := &catalog.Database{Name: name, Tables: make(map[string]*catalog.Table, len(metas))}
	for _, m := range metas {
		db.Tables[m.Name] = m.ToTable()
	}
	w.Database = db
	return nil
}

// CreateTable inserts t into the active database's table map (spec.md
// §4.7 create_table). t stays dirty/unflushed until pool.hierarchicCheck
// registers its schema on disk.
func (w *Worker) CreateTable(t *catalog.Table) error {
	if w.Database == nil {
		return semanticErr("NoActiveDatabase", "no active database to create a table in")
	}
	if _, exists := w.Database.Tables[t.Name]; exists {
		return semanticErr("TableExists", "table "+t.Name+" already exists")
	}
	t.IsDirty = true
	t.IsDataLoaded = true // freshly created, no prior persisted rows to load
	w.Database.Tables[t.Name] = t
	return nil
}

// InsertIntoTable locates stmt's target table, seeds its PublicKey from
// the session user's key on first use, and appends each value tuple as a
// row (spec.md §4.7 insert_into_table).
func (w *Worker) InsertIntoTable(stmt *parser.InsertStatement) error {
	if w.Database == nil {
		return semanticErr("NoActiveDatabase", "no active database")
	}
	table, ok := w.Database.Tables[stmt.TableName]
	if !ok {
		return semanticErr("TableNotExists", "table "+stmt.TableName+" does not exist")
	}
	if err := w.ensureRowsLoaded(table); err != nil {
		return err
	}
	if table.PublicKey == 0 {
		table.PublicKey = w.User.Key
	}
	for _, pairs := range stmt.Rows {
		if err := table.InsertRow(pairs, w.Encrypt); err != nil {
			return err
		}
	}
	return nil
}

// ensureRowsLoaded fetches a table's persisted rows from disk exactly
// once per session. Tables created this session (IsDirty, never
// flushed) have nothing to fetch and are marked loaded trivially.
func (w *Worker) ensureRowsLoaded(table *catalog.Table) error {
	if table.IsDataLoaded {
		return nil
	}
	if table.IsDirty {
		table.IsDataLoaded = true
		return nil
	}
	dbName := w.Database.Name
	meta, err := w.Store.LoadTableMeta(w.User.Name, dbName, table.Name)
	if err != nil {
		return err
	}
	count, err := w.Store.RowCount(w.User.Name, dbName, table.Name, meta)
	if err != nil {
		return err
	}
	persisted := []catalog.Row{}
	if count > 0 {
		persisted, err = w.Store.FetchRows(w.User.Name, dbName, table.Name, meta, 0, count)
		if err != nil {
			return err
		}
	}
	table.Rows = append(persisted, table.Rows...)
	table.DirtyCursor = len(persisted)
	table.IsDataLoaded = true
	return nil
}

// Select implements spec.md §4.7 select: a simplified FROM->WHERE->SELECT
// pipeline. Only a single, join-free FROM table is executed; multi-table
// FROM is grammatically accepted but semantically unimplemented, per
// spec.md §4.7's "flagged as unimplemented combinations".
func (w *Worker) Select(qd *parser.QueryData) (catalog.Result, error) {
	if w.Database == nil {
		return catalog.Result{}, semanticErr("NoActiveDatabase", "no active database")
	}
	if len(qd.Tables) != 1 {
		return catalog.Result{}, semanticErr("NotImplemented", "multi-table FROM without a join is not implemented")
	}
	src, ok := w.Database.Tables[qd.Tables[0]]
	if !ok {
		return catalog.Result{}, semanticErr("TableNotExists", "table "+qd.Tables[0]+" does not exist")
	}
	if err := w.ensureRowsLoaded(src); err != nil {
		return catalog.Result{}, err
	}

	vt := src.Clone()

	if qd.Predicate != nil {
		if err := evaluatePredicate(vt, qd.Predicate); err != nil {
			return catalog.Result{}, err
		}
		vt.SetRowSet(qd.Predicate.Set)
	}

	result, err := vt.Select(qd.Fields)
	if err != nil {
		return catalog.Result{}, err
	}

	w.QueryData = qd
	if b, err := json.Marshal(result); err == nil {
		w.ResultJSON = string(b)
	}
	return result, nil
}

// evaluatePredicate implements table_predicate (spec.md §4.7), a
// post-order traversal that materializes each node's row-index Set:
// comparisons call Table.OperatorFilterRows and collapse to a leaf; AND
// intersects, OR unions, already-evaluated children's sets; NOT
// complements its right child's set against the table's full row set.
func evaluatePredicate(table *catalog.Table, node *parser.Node) error {
	if node == nil {
		return nil
	}
	if err := evaluatePredicate(table, node.Left); err != nil {
		return err
	}
	if err := evaluatePredicate(table, node.Right); err != nil {
		return err
	}

	switch {
	case node.Left == nil && node.Right == nil:
		// bare identifier/literal leaf; nothing to evaluate yet.
		return nil

	case node.Root == "not":
		full := table.FullRowSet()
		node.Set = setDiff(full, node.Right.Set)
		return nil

	case node.Root == "is null" || node.Root == "is not null":
		set, err := table.OperatorFilterRows(node.Left.Root, node.Root, "")
		if err != nil {
			return err
		}
		node.Set = set
		node.Left = nil
		return nil

	case node.Left != nil && node.Right != nil:
		switch node.Root {
		case "and":
			node.Set = setIntersect(node.Left.Set, node.Right.Set)
		case "or":
			node.Set = setUnion(node.Left.Set, node.Right.Set)
		default:
			set, err := table.OperatorFilterRows(node.Left.Root, node.Root, node.Right.Root)
			if err != nil {
				return err
			}
			node.Set = set
			node.Left = nil
			node.Right = nil
		}
		return nil

	default:
		return semanticErr("MalformedPredicate", "predicate node has only one child")
	}
}

func setIntersect(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for i := range a {
		if _, ok := b[i]; ok {
			out[i] = struct{}{}
		}
	}
	return out
}

func setUnion(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for i := range a {
		out[i] = struct{}{}
	}
	for i := range b {
		out[i] = struct{}{}
	}
	return out
}

func setDiff(full, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(full))
	for i := range full {
		if _, ok := b[i]; !ok {
			out[i] = struct{}{}
		}
	}
	return out
}

// Execute runs a fully parsed Statement against the session (spec.md
// §4.6/§4.7): DDL mutates w.Database directly; SELECT returns its Result
// and records ResultJSON.
func (w *Worker) Execute(stmt *parser.Statement) (catalog.Result, error) {
	switch stmt.Kind {
	case parser.StmtCreateDatabase:
		return catalog.Result{}, w.CreateDatabase(stmt.CreateDatabaseName)
	case parser.StmtCreateTable:
		return catalog.Result{}, w.CreateTable(stmt.CreateTable)
	case parser.StmtInsertInto:
		return catalog.Result{}, w.InsertIntoTable(stmt.InsertInto)
	case parser.StmtSelect:
		return w.Select(stmt.Select)
	default:
		return catalog.Result{}, semanticErr("UnknownStatement", "unrecognized statement kind")
	}
}
