package pool_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/pool"
	"stellarsql/sql/lexer"
	"stellarsql/sql/parser"
	"stellarsql/storage"
)

func newStore(t *testing.T) *storage.DiskStore {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "base"), false)
	require.NoError(t, store.CreateFileBase())
	return store
}

func exec(t *testing.T, p *pool.Pool, username, dbname, addr, sql string) {
	t.Helper()
	w, err := p.Get(username, dbname, addr, 0)
	require.NoError(t, err)
	scanner := lexer.NewScanner(sql)
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)
	_, err = w.Execute(stmt)
	require.NoError(t, err)
}

func TestGetCreatesAndCachesWorker(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateUsername("alice"))
	p := pool.New(4, store)

	w1, err := p.Get("alice", "", "addr-1", 0)
	require.NoError(t, err)
	w2, err := p.Get("alice", "", "addr-1", 0)
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.EqualValues(t, 2, p.Metrics().Snapshot()["gets"])
	assert.EqualValues(t, 1, p.Metrics().Snapshot()["misses"])
}

func TestWriteBackFlushesCreatedDatabaseToDisk(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateUsername("alice"))
	p := pool.New(4, store)

	exec(t, p, "alice", "", "addr-1", "CREATE DATABASE shop;")
	require.NoError(t, p.WriteBack("addr-1"))

	dbs, err := store.GetDBs("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, dbs)
	assert.Equal(t, 1, p.Ledger().Len())
}

func TestWriteBackFlushesTableAndRows(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateUsername("alice"))
	p := pool.New(4, store)

	exec(t, p, "alice", "", "addr-1", "CREATE DATABASE shop;")
	exec(t, p, "alice", "shop", "addr-1", "CREATE TABLE widgets (a1 int, PRIMARY KEY (a1));")
	exec(t, p, "alice", "shop", "addr-1", "INSERT INTO widgets (a1) VALUES (1), (2);")
	require.NoError(t, p.WriteBack("addr-1"))

	tables, err := store.GetTables("alice", "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"widgets"}, tables)
	assert.EqualValues(t, 2, p.Metrics().Snapshot()["rows_flushed"])
}

func TestEvictionFlushesLeastRecentlyUsed(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateUsername("alice"))
	p := pool.New(1, store)

	exec(t, p, "alice", "", "addr-1", "CREATE DATABASE db1;")
	// a second distinct connection evicts addr-1, forcing its flush.
	_, err := p.Get("alice", "", "addr-2", 0)
	require.NoError(t, err)

	dbs, err := store.GetDBs("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"db1"}, dbs)
	assert.EqualValues(t, 1, p.Metrics().Snapshot()["evictions"])
}

// TestGetLoadsDatabaseOnFirstRequestAfterEmptyDbnameLogin reproduces the
// server's login handshake: login registers the pool entry with an empty
// dbname, before the connection's first request names the database it
// actually wants. A worker cached from that login must still load the
// database on the connection's first real request, even though addr is
// already a cache hit by then.
func TestGetLoadsDatabaseOnFirstRequestAfterEmptyDbnameLogin(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateUsername("alice"))
	p := pool.New(4, store)

	// A prior session created and flushed "shop" to disk.
	exec(t, p, "alice", "", "addr-1", "CREATE DATABASE shop;")
	require.NoError(t, p.WriteBack("addr-1"))

	// New connection: login with no dbname, then a request naming "shop".
	_, err := p.Get("alice", "", "addr-2", 0)
	require.NoError(t, err)

	exec(t, p, "alice", "shop", "addr-2", "CREATE TABLE widgets (a1 int, PRIMARY KEY (a1));")

	w, err := p.Get("alice", "shop", "addr-2", 0)
	require.NoError(t, err)
	_, ok := w.Database.Tables["widgets"]
	assert.True(t, ok)
}

func TestWriteBackUnknownAddrFails(t *testing.T) {
	store := newStore(t)
	p := pool.New(4, store)
	err := p.WriteBack("nope")
	require.Error(t, err)
}
