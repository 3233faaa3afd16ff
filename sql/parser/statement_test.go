package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
	"stellarsql/internal/xerr"
	"stellarsql/sql/lexer"
	"stellarsql/sql/parser"
)

func parseSQL(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	scanner := lexer.NewScanner(sql)
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	stmt, err := parser.Parse(tokens)
	require.NoError(t, err)
	return stmt
}

func TestParseCreateDatabase(t *testing.T) {
	stmt := parseSQL(t, "create database shop;")
	assert.Equal(t, parser.StmtCreateDatabase, stmt.Kind)
	assert.Equal(t, "shop", stmt.CreateDatabaseName)
}

func TestParseCreateTableWithPrimaryKey(t *testing.T) {
	stmt := parseSQL(t, "create table widgets (a1 int not null, a2 varchar(10) default 'x', primary key (a1));")
	require.Equal(t, parser.StmtCreateTable, stmt.Kind)
	tbl := stmt.CreateTable
	assert.Equal(t, "widgets", tbl.Name)
	assert.Equal(t, []string{"a1"}, tbl.PrimaryKey)
	assert.True(t, tbl.Fields["a1"].NotNull)
	assert.Equal(t, catalog.KindVarchar, tbl.Fields["a2"].Type.Kind)
	require.NotNil(t, tbl.Fields["a2"].Default)
	assert.Equal(t, "'x'", *tbl.Fields["a2"].Default)
}

func TestParseCreateTableRejectsCheck(t *testing.T) {
	scanner := lexer.NewScanner("create table t (a1 int check (a1 > 0));")
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	_, err = parser.Parse(tokens)
	require.Error(t, err)
}

func TestParseInsertIntoMultipleTuples(t *testing.T) {
	stmt := parseSQL(t, "insert into widgets (a1, a2) values (1, 'aaa'), (2, 'bbb');")
	require.Equal(t, parser.StmtInsertInto, stmt.Kind)
	ins := stmt.InsertInto
	assert.Equal(t, "widgets", ins.TableName)
	require.Len(t, ins.Rows, 2)
	assert.Equal(t, []catalog.AttrValue{{Name: "a1", Value: "1"}, {Name: "a2", Value: "'aaa'"}}, ins.Rows[0])
	assert.Equal(t, []catalog.AttrValue{{Name: "a1", Value: "2"}, {Name: "a2", Value: "'bbb'"}}, ins.Rows[1])
}

func TestParseSelectWithWhereGroupOrder(t *testing.T) {
	stmt := parseSQL(t, "select a1, a2 from widgets where a1 > 2 and a2 = 'bbb' group by a2 order by a1;")
	require.Equal(t, parser.StmtSelect, stmt.Kind)
	qd := stmt.Select
	assert.Equal(t, []string{"a1", "a2"}, qd.Fields)
	assert.Equal(t, []string{"widgets"}, qd.Tables)
	require.NotNil(t, qd.Predicate)
	assert.Equal(t, "and", qd.Predicate.Root)
	assert.Equal(t, []string{"a2"}, qd.GroupFields)
	assert.Equal(t, []string{"a1"}, qd.SortFields)
}

func TestParseSelectAcceptsMultiTableFrom(t *testing.T) {
	stmt := parseSQL(t, "select a, b from t1, t2;")
	assert.Equal(t, []string{"t1", "t2"}, stmt.Select.Tables)
}

func TestParseUnknownStatementKind(t *testing.T) {
	scanner := lexer.NewScanner("drop table widgets;")
	tokens, err := scanner.ScanTokens()
	require.NoError(t, err)
	_, err = parser.Parse(tokens)
	require.Error(t, err)
	assert.True(t, xerr.Is(err, xerr.Semantic))
}

func TestParseSelectWithIsNullAndIsNotNull(t *testing.T) {
	stmt := parseSQL(t, "select a1 from widgets where a1 is null or a2 is not null;")
	qd := stmt.Select
	require.NotNil(t, qd.Predicate)
	assert.Equal(t, "or", qd.Predicate.Root)

	left := qd.Predicate.Left
	require.NotNil(t, left)
	assert.Equal(t, "is null", left.Root)
	require.NotNil(t, left.Left)
	assert.Equal(t, "a1", left.Left.Root)
	assert.Nil(t, left.Right)

	right := qd.Predicate.Right
	require.NotNil(t, right)
	assert.Equal(t, "is not null", right.Root)
	require.NotNil(t, right.Left)
	assert.Equal(t, "a2", right.Left.Root)
	assert.Nil(t, right.Right)
}
