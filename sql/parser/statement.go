package parser

import (
	"fmt"
	"strconv"

	"stellarsql/catalog"
	"stellarsql/sql/lexer"
)

// StatementKind distinguishes the four statement shapes spec.md §4.6
// wires end to end.
type StatementKind int

const (
	StmtCreateDatabase StatementKind = iota
	StmtCreateTable
	StmtInsertInto
	StmtSelect
)

// InsertStatement is a parsed INSERT INTO: the target table, the column
// list, and one value-tuple per VALUES group, each already paired with
// its column name.
type InsertStatement struct {
	TableName string
	Rows      [][]catalog.AttrValue
}

// Statement is the parser's output: exactly one of the Create*/Insert/
// Select fields is populated, selected by Kind. DDL statements are meant
// to be applied directly to the session's catalog.Database (spec.md §3);
// SELECT yields a QueryData for the worker to execute.
type Statement struct {
	Kind StatementKind

	CreateDatabaseName string
	CreateTable        *catalog.Table
	InsertInto         *InsertStatement
	Select             *QueryData
}

// Parse consumes a full statement's token stream (including the trailing
// `;`, if present) and dispatches on its first token (spec.md §4.6).
func Parse(tokens []lexer.Symbol) (*Statement, error) {
	tokens = trimSemicolon(tokens)
	if len(tokens) == 0 {
		return nil, syntaxErr("empty statement")
	}

	switch tokens[0].Token {
	case lexer.TokenCreateDatabase:
		return parseCreateDatabase(tokens)
	case lexer.TokenCreateTable:
		return parseCreateTable(tokens)
	case lexer.TokenInsertInto:
		return parseInsertInto(tokens)
	case lexer.TokenSelect:
		return parseSelect(tokens)
	default:
		return nil, semanticErr("NotImplemented", fmt.Sprintf("statement kind not implemented: %s", tokens[0].Name))
	}
}

func trimSemicolon(tokens []lexer.Symbol) []lexer.Symbol {
	if len(tokens) > 0 && tokens[len(tokens)-1].Token == lexer.TokenSemicolon {
		return tokens[:len(tokens)-1]
	}
	return tokens
}

// --- CREATE DATABASE --------------------------------------------------

func parseCreateDatabase(tokens []lexer.Symbol) (*Statement, error) {
	if len(tokens) != 2 {
		return nil, syntaxErr("expected CREATE DATABASE <name>")
	}
	return &Statement{Kind: StmtCreateDatabase, CreateDatabaseName: tokens[1].Name}, nil
}

// --- CREATE TABLE -------------------------------------------------------

func parseCreateTable(tokens []lexer.Symbol) (*Statement, error) {
	if len(tokens) < 4 {
		return nil, syntaxErr("expected CREATE TABLE <name> (<col_decl>, …)")
	}
	name := tokens[1].Name
	if tokens[2].Token != lexer.TokenParentLeft {
		return nil, syntaxErr("expected '(' after table name")
	}
	if tokens[len(tokens)-1].Token != lexer.TokenParentRight {
		return nil, syntaxErr("expected ')' terminating column list")
	}
	body := tokens[3 : len(tokens)-1]

	table := catalog.NewTable(name)
	groups := splitOnComma(body)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		if g[0].Token == lexer.TokenPrimaryKey {
			cols, err := parseParenIdentList(g[1:])
			if err != nil {
				return nil, err
			}
			table.PrimaryKey = cols
			continue
		}
		if g[0].Token == lexer.TokenForeignKey {
			cols, err := parseParenIdentList(g[1:])
			if err != nil {
				return nil, err
			}
			table.ForeignKey = cols
			continue
		}
		field, err := parseColumnDecl(g)
		if err != nil {
			return nil, err
		}
		table.AddField(field)
	}

	return &Statement{Kind: StmtCreateTable, CreateTable: table}, nil
}

func parseParenIdentList(tokens []lexer.Symbol) ([]string, error) {
	if len(tokens) < 3 || tokens[0].Token != lexer.TokenParentLeft || tokens[len(tokens)-1].Token != lexer.TokenParentRight {
		return nil, syntaxErr("expected '(' <col>, … ')'")
	}
	groups := splitOnComma(tokens[1 : len(tokens)-1])
	cols := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g) != 1 {
			return nil, syntaxErr("expected a bare column name in key list")
		}
		cols = append(cols, g[0].Name)
	}
	return cols, nil
}

// parseColumnDecl parses `name type [(len)] [NOT NULL] [DEFAULT literal]
// [ENCRYPT]` (spec.md §4.6). CHECK is reserved but rejected, per spec.
func parseColumnDecl(tokens []lexer.Symbol) (catalog.Field, error) {
	if len(tokens) < 2 {
		return catalog.Field{}, syntaxErr("expected <col> <type> in column declaration")
	}
	colName := tokens[0].Name
	typeTok := tokens[1]

	var length uint8
	i := 2
	if i < len(tokens) && tokens[i].Token == lexer.TokenParentLeft {
		if i+2 >= len(tokens) || tokens[i+2].Token != lexer.TokenParentRight {
			return catalog.Field{}, syntaxErr("expected '(' <len> ')' after type")
		}
		n, err := strconv.Atoi(tokens[i+1].Name)
		if err != nil || n < 1 || n > 255 {
			return catalog.Field{}, syntaxErr("declared length must be between 1 and 255")
		}
		length = uint8(n)
		i += 3
	}

	dtype, ok := catalog.NewDataType(typeTok.Name, length)
	if !ok {
		return catalog.Field{}, syntaxErr("unknown data type " + typeTok.Name)
	}

	var notNull, encrypt bool
	var def *string
	for i < len(tokens) {
		switch tokens[i].Token {
		case lexer.TokenNotNull:
			notNull = true
			i++
		case lexer.TokenDefault:
			if i+1 >= len(tokens) {
				return catalog.Field{}, syntaxErr("expected literal after DEFAULT")
			}
			v := tokens[i+1].Name
			def = &v
			i += 2
		case lexer.TokenEncrypt:
			encrypt = true
			i++
		case lexer.TokenCheck:
			return catalog.Field{}, syntaxErr("CHECK constraint is reserved and not supported")
		default:
			return catalog.Field{}, syntaxErr("unexpected token in column declaration: " + tokens[i].Name)
		}
	}

	return catalog.NewField(colName, dtype, notNull, def, encrypt), nil
}

// --- INSERT INTO ---------------------------------------------------------

func parseInsertInto(tokens []lexer.Symbol) (*Statement, error) {
	if len(tokens) < 2 {
		return nil, syntaxErr("expected INSERT INTO <table>")
	}
	tableName := tokens[1].Name
	i := 2
	if i >= len(tokens) || tokens[i].Token != lexer.TokenParentLeft {
		return nil, syntaxErr("expected column list after table name")
	}
	closeIdx := matchParen(tokens, i)
	if closeIdx < 0 {
		return nil, syntaxErr("unmatched '(' in column list")
	}
	attrGroups := splitOnComma(tokens[i+1 : closeIdx])
	attrs := make([]string, 0, len(attrGroups))
	for _, g := range attrGroups {
		if len(g) != 1 {
			return nil, syntaxErr("expected a bare column name in INSERT column list")
		}
		attrs = append(attrs, g[0].Name)
	}
	i = closeIdx + 1

	if i >= len(tokens) || tokens[i].Token != lexer.TokenValues {
		return nil, syntaxErr("expected VALUES after column list")
	}
	i++

	var rows [][]catalog.AttrValue
	for i < len(tokens) {
		if tokens[i].Token != lexer.TokenParentLeft {
			return nil, syntaxErr("expected '(' starting a value tuple")
		}
		close2 := matchParen(tokens, i)
		if close2 < 0 {
			return nil, syntaxErr("unmatched '(' in value tuple")
		}
		valGroups := splitOnComma(tokens[i+1 : close2])
		if len(valGroups) != len(attrs) {
			return nil, syntaxErr("value tuple length does not match column list length")
		}
		pairs := make([]catalog.AttrValue, len(attrs))
		for j, g := range valGroups {
			if len(g) != 1 {
				return nil, syntaxErr("expected a single literal per value")
			}
			pairs[j] = catalog.AttrValue{Name: attrs[j], Value: g[0].Name}
		}
		rows = append(rows, pairs)

		i = close2 + 1
		if i < len(tokens) && tokens[i].Token == lexer.TokenComma {
			i++
			continue
		}
		break
	}
	if i != len(tokens) {
		return nil, syntaxErr("unexpected trailing tokens after VALUES list")
	}

	return &Statement{Kind: StmtInsertInto, InsertInto: &InsertStatement{TableName: tableName, Rows: rows}}, nil
}

// --- SELECT ---------------------------------------------------------------

func parseSelect(tokens []lexer.Symbol) (*Statement, error) {
	i := 1
	fieldsEnd := indexOfToken(tokens, i, lexer.TokenFrom)
	if fieldsEnd < 0 {
		return nil, syntaxErr("expected FROM in SELECT")
	}
	fields := identList(splitOnComma(tokens[i:fieldsEnd]))
	i = fieldsEnd + 1

	whereIdx := indexOfToken(tokens, i, lexer.TokenWhere)
	groupIdx := indexOfToken(tokens, i, lexer.TokenGroupBy)
	orderIdx := indexOfToken(tokens, i, lexer.TokenOrderBy)

	tablesEnd := len(tokens)
	for _, idx := range []int{whereIdx, groupIdx, orderIdx} {
		if idx >= 0 && idx < tablesEnd {
			tablesEnd = idx
		}
	}
	tables := identList(splitOnComma(tokens[i:tablesEnd]))
	if len(tables) == 0 {
		return nil, syntaxErr("expected at least one table in FROM")
	}

	qd := &QueryData{Fields: fields, Tables: tables}

	if whereIdx >= 0 {
		whereEnd := len(tokens)
		for _, idx := range []int{groupIdx, orderIdx} {
			if idx >= 0 && idx < whereEnd {
				whereEnd = idx
			}
		}
		predTokens := tokens[whereIdx+1 : whereEnd]
		if len(predTokens) == 0 {
			return nil, syntaxErr("expected a predicate after WHERE")
		}
		node, err := ParsePredicate(predTokens)
		if err != nil {
			return nil, err
		}
		qd.Predicate = node
	}

	if groupIdx >= 0 {
		groupEnd := len(tokens)
		if orderIdx >= 0 {
			groupEnd = orderIdx
		}
		qd.GroupFields = identList(splitOnComma(tokens[groupIdx+1 : groupEnd]))
	}

	if orderIdx >= 0 {
		qd.SortFields = identList(splitOnComma(tokens[orderIdx+1:]))
		qd.SortDirection = SortAsc
	}

	return &Statement{Kind: StmtSelect, Select: qd}, nil
}

// --- token-stream helpers --------------------------------------------------

func splitOnComma(tokens []lexer.Symbol) [][]lexer.Symbol {
	var groups [][]lexer.Symbol
	depth := 0
	start := 0
	for i, t := range tokens {
		switch t.Token {
		case lexer.TokenParentLeft:
			depth++
		case lexer.TokenParentRight:
			depth--
		case lexer.TokenComma:
			if depth == 0 {
				groups = append(groups, tokens[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, tokens[start:])
	return groups
}

func identList(groups [][]lexer.Symbol) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		out = append(out, g[0].Name)
	}
	return out
}

func indexOfToken(tokens []lexer.Symbol, from int, tok lexer.Token) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].Token == tok {
			return i
		}
	}
	return -1
}

func matchParen(tokens []lexer.Symbol, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(tokens); i++ {
		switch tokens[i].Token {
		case lexer.TokenParentLeft:
			depth++
		case lexer.TokenParentRight:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
