// Package pool implements the LRU session cache (spec.md §4.8): a Pool
// of bounded size keyed by client address, owning one worker.Worker per
// live connection and flushing dirty database/table/row state back to
// disk on eviction. Grounded 1:1 on
// original_source/src/manager/pool.rs (freelist + BTreeMap), mirrored
// here as a recency slice of addresses plus a map.
package pool

import (
	"sync"
	"time"

	"stellarsql/catalog"
	"stellarsql/internal/ddl"
	"stellarsql/internal/monitoring"
	"stellarsql/internal/xerr"
	"stellarsql/internal/xlog"
	"stellarsql/sql/worker"
	"stellarsql/storage"
)

// Pool is an LRU cache of worker.Worker sessions, keyed by client
// address. It is the single process-wide mutable state StellarSQL's
// concurrency model protects with one mutex (spec.md §5).
type Pool struct {
	mu       sync.Mutex
	maxEntry int
	cache    map[string]*worker.Worker
	freelist []string // [most recent ... least recent]

	store   *storage.DiskStore
	metrics *monitoring.PoolMetrics
	ledger  *ddl.Ledger
	log     *xlog.Logger
}

// New returns a Pool with capacity maxEntry, backed by store for flushes.
func New(maxEntry int, store *storage.DiskStore) *Pool {
	return &Pool{
		maxEntry: maxEntry,
		cache:    make(map[string]*worker.Worker),
		store:    store,
		metrics:  monitoring.NewPoolMetrics(),
		ledger:   ddl.NewLedger(),
		log:      xlog.Default.With("pool"),
	}
}

// Metrics exposes the pool's runtime counters.
func (p *Pool) Metrics() *monitoring.PoolMetrics { return p.metrics }

// Ledger exposes the pool's DDL flush audit trail.
func (p *Pool) Ledger() *ddl.Ledger { return p.ledger }

// Get returns the Worker for addr, creating and loading one if this is
// its first reference, and promotes addr to most-recently-used (spec.md
// §4.8 get). The caller must hold the pool lock across the full request
// lifecycle (spec.md §5) — Get itself does not lock, since the server
// dispatch layer serializes get -> parse -> execute under one
// mutual-exclusion section.
func (p *Pool) Get(username, dbname, addr string, key int32) (*worker.Worker, error) {
	p.metrics.IncrementGets()

	w, ok := p.cache[addr]
	if !ok {
		p.metrics.IncrementMisses()
		w = worker.New(&catalog.User{Name: username, Key: key}, p.store)
		if dbname != "" {
			if err := w.LoadDatabase(dbname); err != nil {
				return nil, xerr.Wrap(xerr.Storage, "LoadDatabase", err)
			}
		}
		if err := p.insert(w, addr); err != nil {
			return nil, err
		}
		return w, nil
	}

	// A worker is first cached at login, before the request's database
	// is known (dbname == ""). Load it here, on the first request line
	// that names one, rather than only on a fresh cache miss — otherwise
	// a reconnect to an already-on-disk database never loads it.
	if dbname != "" && (w.Database == nil || w.Database.Name != dbname) {
		if err := w.LoadDatabase(dbname); err != nil {
			return nil, xerr.Wrap(xerr.Storage, "LoadDatabase", err)
		}
	}

	if len(p.freelist) == 0 || p.freelist[0] != addr {
		p.popFromFreelist(addr)
		p.freelist = append([]string{addr}, p.freelist...)
	}
	return w, nil
}

// insert registers a freshly created worker under addr, evicting the
// least-recently-used entry first if the pool is at capacity (spec.md
// §4.8 insert).
func (p *Pool) insert(w *worker.Worker, addr string) error {
	if len(p.cache) >= p.maxEntry {
		popAddr := p.freelist[len(p.freelist)-1]
		p.freelist = p.freelist[:len(p.freelist)-1]
		p.metrics.IncrementEvictions()
		if err := p.flush(popAddr); err != nil {
			return err
		}
		delete(p.cache, popAddr)
	}
	p.cache[addr] = w
	p.freelist = append([]string{addr}, p.freelist...)
	return nil
}

// WriteBack removes addr from the pool, flushing its worker's dirty
// state to disk first (spec.md §4.8 write_back). Called by connection
// dispatch on connection close.
func (p *Pool) WriteBack(addr string) error {
	p.popFromFreelist(addr)
	if _, ok := p.cache[addr]; !ok {
		return xerr.New(xerr.Storage, "EntryNotExist", "no pool entry for "+addr)
	}
	if err := p.flush(addr); err != nil {
		return err
	}
	delete(p.cache, addr)
	return nil
}

func (p *Pool) popFromFreelist(addr string) {
	for i, a := range p.freelist {
		if a == addr {
			p.freelist = append(p.freelist[:i], p.freelist[i+1:]...)
			return
		}
	}
}

// flush runs hierarchicCheck for addr's worker, recording metrics and
// ddl-ledger entries for every operation it applies.
func (p *Pool) flush(addr string) error {
	w, ok := p.cache[addr]
	if !ok {
		return xerr.New(xerr.Storage, "EntryNotExist", "no pool entry for "+addr)
	}
	start := time.Now()
	rows, err := p.hierarchicCheck(w)
	p.metrics.RecordFlush(time.Since(start), rows)
	if err != nil {
		p.metrics.IncrementErrorCount(xerr.CodeOf(err))
		p.log.Error("flush failed", xlog.Fields{"addr": addr, "error": err.Error()})
	}
	return err
}

// hierarchicCheck persists a worker's dirty database/table/row state, in
// order: database delete/create, then per-table drop/create, then
// appending every still-dirty row (spec.md §4.8 hierarchic_check).
// Returns the number of rows appended, for metrics.
func (p *Pool) hierarchicCheck(w *worker.Worker) (int, error) {
	db := w.Database
	if db == nil {
		return 0, nil
	}
	username := w.User.Name

	if db.IsDelete {
		err := p.store.RemoveDB(username, db.Name)
		p.ledger.Record(ddl.OpDropDatabase, username, db.Name, "", 0, err)
		return 0, err
	}
	if db.IsDirty {
		err := p.store.CreateDB(username, db.Name)
		p.ledger.Record(ddl.OpCreateDatabase, username, db.Name, "", 0, err)
		if err != nil && xerr.CodeOf(err) != "DbExists" {
			return 0, err
		}
	}

	totalRows := 0
	for name, table := range db.Tables {
		if table.IsDelete {
			err := p.store.DropTable(username, db.Name, name)
			p.ledger.Record(ddl.OpDropTable, username, db.Name, name, 0, err)
			if err != nil {
				return totalRows, err
			}
			continue
		}
		if table.IsDirty {
			err := p.store.CreateTable(username, db.Name, table)
			p.ledger.Record(ddl.OpCreateTable, username, db.Name, name, 0, err)
			if err != nil && xerr.CodeOf(err) != "TableExists" {
				return totalRows, err
			}
			table.IsDirty = false
		}

		dirty := dirtyRows(table)
		if len(dirty) == 0 {
			continue
		}
		meta, err := p.store.LoadTableMeta(username, db.Name, name)
		if err != nil {
			return totalRows, err
		}
		if err := p.store.AppendRows(username, db.Name, name, meta, dirty); err != nil {
			p.ledger.Record(ddl.OpAppendRows, username, db.Name, name, len(dirty), err)
			return totalRows, err
		}
		p.ledger.Record(ddl.OpAppendRows, username, db.Name, name, len(dirty), nil)
		markClean(table)
		totalRows += len(dirty)
	}
	return totalRows, nil
}

func dirtyRows(table *catalog.Table) []catalog.Row {
	out := make([]catalog.Row, 0)
	for _, r := range table.Rows {
		if r.IsDirty {
			out = append(out, r)
		}
	}
	return out
}

func markClean(table *catalog.Table) {
	for i := range table.Rows {
		table.Rows[i].IsDirty = false
	}
}

// Close flushes every still-cached worker, most recently used first, used at process
// shutdown (spec.md §9 "Global session registry ... tear down by
// flushing every entry with write_back").
func (p *Pool) Close() error {
	addrs := append([]string{}, p.freelist...)
	var first error
	for _, addr := range addrs {
		if err := p.WriteBack(addr); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Lock acquires the pool's mutual-exclusion lock for the duration of one
// request (spec.md §5: "acquired for the full duration of a request's
// execution"). Unlock releases it. Dispatch (package server) wraps
// Get -> parse -> execute in Lock/Unlock.
func (p *Pool) Lock()   { p.mu.Lock() }
func (p *Pool) Unlock() { p.mu.Unlock() }
