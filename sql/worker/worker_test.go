package worker_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
	"stellarsql/sql/lexer"
	"stellarsql/sql/parser"
	"stellarsql/sql/worker"
	"stellarsql/storage"
)

func newWorker(t *testing.T) (*worker.Worker, *storage.DiskStore) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "base"), false)
	require.NoError(t, store.CreateFileBase())
	require.NoError(t, store.CreateUsername("alice"))
	return worker.New(&catalog.User{Name: "alice"}, store), store
}

func execSQL(t *testing.T, w *worker.Worker, sql string) catalog.Result {
	t.Helper()
	scanner := lexer.NewScanner(sql)
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)
	result, err := w.Execute(stmt)
	require.NoError(t, err)
	return result
}

// TestEndToEndScenarioA mirrors spec.md §8 scenario A: create a database
// and table, insert rows, then select with an AND predicate.
func TestEndToEndScenarioA(t *testing.T) {
	w, _ := newWorker(t)

	execSQL(t, w, "CREATE DATABASE shop;")
	execSQL(t, w, "CREATE TABLE widgets (a1 int, a2 varchar(10), a3 float, PRIMARY KEY (a1));")
	execSQL(t, w, "INSERT INTO widgets (a1, a2, a3) VALUES (1, 'aaa', 1.1), (2, 'aaa', 1.2), (3, 'bbb', 2.3), (4, 'bbb', 2.4);")

	result := execSQL(t, w, "SELECT a1, a2, a3 FROM widgets WHERE a2 = 'bbb' AND a1 > 2;")

	assert.Equal(t, []string{"a1", "a2", "a3"}, result.Fields)
	assert.Equal(t, [][]string{
		{"3", "'bbb'", "2.3"},
		{"4", "'bbb'", "2.4"},
	}, result.Rows)
}

func TestCreateTableTwiceFails(t *testing.T) {
	w, _ := newWorker(t)
	execSQL(t, w, "CREATE DATABASE shop;")
	execSQL(t, w, "CREATE TABLE widgets (a1 int, PRIMARY KEY (a1));")

	scanner := lexer.NewScanner("CREATE TABLE widgets (a1 int, PRIMARY KEY (a1));")
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)

	_, err = w.Execute(stmt)
	require.Error(t, err)
}

func TestSelectWithoutActiveDatabaseFails(t *testing.T) {
	w, _ := newWorker(t)
	scanner := lexer.NewScanner("SELECT * FROM widgets;")
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)

	_, err = w.Execute(stmt)
	require.Error(t, err)
}

func TestSelectStarExpandsFieldList(t *testing.T) {
	w, _ := newWorker(t)
	execSQL(t, w, "CREATE DATABASE shop;")
	execSQL(t, w, "CREATE TABLE widgets (a1 int, a2 varchar(10), PRIMARY KEY (a1));")
	execSQL(t, w, "INSERT INTO widgets (a1, a2) VALUES (1, 'aaa');")

	result := execSQL(t, w, "SELECT * FROM widgets;")
	assert.ElementsMatch(t, []string{"a1", "a2"}, result.Fields)
	assert.Len(t, result.Rows, 1)
}

// TestSelectWithIsNullPredicate exercises spec.md §11.2's unary IS
// NULL/IS NOT NULL predicate operators end to end.
func TestSelectWithIsNullPredicate(t *testing.T) {
	w, _ := newWorker(t)
	execSQL(t, w, "CREATE DATABASE shop;")
	execSQL(t, w, "CREATE TABLE widgets (a1 int, a2 varchar(10), PRIMARY KEY (a1));")
	execSQL(t, w, "INSERT INTO widgets (a1, a2) VALUES (1, 'aaa'), (2, null);")

	result := execSQL(t, w, "SELECT a1 FROM widgets WHERE a2 IS NULL;")
	assert.Equal(t, [][]string{{"2"}}, result.Rows)

	result = execSQL(t, w, "SELECT a1 FROM widgets WHERE a2 IS NOT NULL;")
	assert.Equal(t, [][]string{{"1"}}, result.Rows)
}

func TestMultiTableFromIsNotImplemented(t *testing.T) {
	w, _ := newWorker(t)
	execSQL(t, w, "CREATE DATABASE shop;")
	execSQL(t, w, "CREATE TABLE a (x int, PRIMARY KEY (x));")
	execSQL(t, w, "CREATE TABLE b (y int, PRIMARY KEY (y));")

	scanner := lexer.NewScanner("SELECT x, y FROM a, b;")
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)

	_, err = w.Execute(stmt)
	require.Error(t, err)
}
