// Package ddl is a DDL audit ledger, adapted from the teacher's migration
// package (Migration{ID,Name,Version,Status,AppliedAt} + a Driver
// interface applying/rolling back schema migrations against a live
// database). Here it is repurposed: instead of applying pending
// migrations to an external database, it records each
// CREATE DATABASE/CREATE TABLE/DROP TABLE/DROP DATABASE operation a pool
// flush (pool.hierarchicCheck) actually applies through storage.DiskStore,
// giving an in-memory trail of what got persisted and when.
package ddl

import (
	"sync"
	"time"
)

// OperationKind is the DDL operation a flush applied.
type OperationKind string

const (
	OpCreateDatabase OperationKind = "CREATE_DATABASE"
	OpDropDatabase   OperationKind = "DROP_DATABASE"
	OpCreateTable    OperationKind = "CREATE_TABLE"
	OpDropTable      OperationKind = "DROP_TABLE"
	OpAppendRows     OperationKind = "APPEND_ROWS"
)

// Entry is one recorded DDL/flush operation.
type Entry struct {
	Kind      OperationKind
	Username  string
	Database  string
	Table     string
	RowCount  int
	AppliedAt time.Time
	Status    string
}

// Ledger is an append-only, concurrency-safe record of flush operations.
type Ledger struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends one entry, tagging it "applied" unless err is non-nil
// (then "failed").
func (l *Ledger) Record(kind OperationKind, username, db, table string, rowCount int, err error) {
	status := "applied"
	if err != nil {
		status = "failed"
	}
	l.mu.Lock()
	l.entries = append(l.entries, Entry{
		Kind: kind, Username: username, Database: db, Table: table,
		RowCount: rowCount, AppliedAt: time.Now(), Status: status,
	})
	l.mu.Unlock()
}

// Entries returns a snapshot of every recorded entry, oldest first.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports how many entries have been recorded.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
