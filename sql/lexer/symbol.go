// Package lexer implements the SQL scanner (spec.md §4.5): Symbol/Token/
// Group classification and the multi-word keyword speculation that turns
// `create table` or `is not null` into a single token. Grounded on
// original_source/src/sql/symbol.rs and lexer.rs.
package lexer

// Group classifies what kind of symbol a Token belongs to.
type Group int

const (
	GroupDataType Group = iota
	GroupFunction
	GroupKeyword
	GroupOperator  // >, >=, =, !=, <>, <, <=, and, not, or
	GroupIdentifier
	GroupDelimiter // ( ) , ;
)

func (g Group) String() string {
	switch g {
	case GroupDataType:
		return "DataType"
	case GroupFunction:
		return "Function"
	case GroupKeyword:
		return "Keyword"
	case GroupOperator:
		return "Operator"
	case GroupIdentifier:
		return "Identifier"
	case GroupDelimiter:
		return "Delimiter"
	default:
		return "Unknown"
	}
}

// Token enumerates every keyword, function, data type, operator, delimiter
// and the catch-all Identifier, in the same order as the original's
// alphabetical Token enum.
type Token int

const (
	TokenAdd Token = iota
	TokenAddConstraint
	TokenAlterColumn
	TokenAlterTable
	TokenAll
	TokenAny
	TokenAs
	TokenAsc
	TokenBetween
	TokenCase
	TokenCheck
	TokenColumn
	TokenConstraint
	TokenCreate
	TokenCreateDatabase
	TokenCreateIndex
	TokenCreateOrReplaceView
	TokenCreateTable
	TokenCreateProcedure
	TokenCreateUniqueIndex
	TokenCreateView
	TokenDatabase
	TokenDefault
	TokenDelete
	TokenDesc
	TokenDistinct
	TokenDropColumn
	TokenDropConstraint
	TokenDropDatabase
	TokenDropDefault
	TokenDropIndex
	TokenDropTable
	TokenDropView
	TokenExec
	TokenExists
	TokenForeignKey
	TokenFrom
	TokenFullOuterJoin
	TokenGroupBy
	TokenHaving
	TokenIn
	TokenIndex
	TokenInnerJoin
	TokenInsertInto
	TokenIsNull
	TokenIsNotNull
	TokenLeftJoin
	TokenLike
	TokenLimit
	TokenNotNull
	TokenOrderBy
	TokenPercent
	TokenPrimaryKey
	TokenProcedure
	TokenRightJoin
	TokenRownum
	TokenSelect
	TokenSet
	TokenTable
	TokenTop
	TokenTruncateTable
	TokenUnion
	TokenUnionAll
	TokenUnique
	TokenUpdate
	TokenValues
	TokenView
	TokenWhere

	TokenAvg
	TokenCount
	TokenMax
	TokenMin
	TokenSum

	TokenChar
	TokenDouble
	TokenFloat
	TokenInt
	TokenVarchar

	TokenLT
	TokenLE
	TokenEQ
	TokenNE
	TokenGT
	TokenGE
	TokenAND
	TokenNOT
	TokenOR

	TokenParentLeft
	TokenParentRight
	TokenComma
	TokenSemicolon

	TokenIdentifier

	TokenEncrypt
)

// Symbol is one lexed token: its literal text, the fixed token it resolved
// to, and which group that token belongs to.
type Symbol struct {
	Name  string
	Token Token
	Group Group
}

func sym(name string, token Token, group Group) Symbol {
	return Symbol{Name: name, Token: token, Group: group}
}

// symbols is the full keyword/function/datatype/operator table, keyed by
// literal text exactly as it appears (lowercased) in source SQL.
var symbols = map[string]Symbol{
	"add":                     sym("add", TokenAdd, GroupKeyword),
	"add constraint":          sym("add constraint", TokenAddConstraint, GroupKeyword),
	"alter column":            sym("alter column", TokenAlterColumn, GroupKeyword),
	"alter table":             sym("alter table", TokenAlterTable, GroupKeyword),
	"all":                     sym("all", TokenAll, GroupKeyword),
	"any":                     sym("any", TokenAny, GroupKeyword),
	"as":                      sym("as", TokenAs, GroupKeyword),
	"asc":                     sym("asc", TokenAsc, GroupKeyword),
	"between":                 sym("between", TokenBetween, GroupKeyword),
	"case":                    sym("case", TokenCase, GroupKeyword),
	"check":                   sym("check", TokenCheck, GroupKeyword),
	"column":                  sym("column", TokenColumn, GroupKeyword),
	"constraint":              sym("constraint", TokenConstraint, GroupKeyword),
	"create":                  sym("create", TokenCreate, GroupKeyword),
	"create database":         sym("create database", TokenCreateDatabase, GroupKeyword),
	"create index":            sym("create index", TokenCreateIndex, GroupKeyword),
	"create or replace view":  sym("create or replace view", TokenCreateOrReplaceView, GroupKeyword),
	"create table":            sym("create table", TokenCreateTable, GroupKeyword),
	"create procedure":        sym("create procedure", TokenCreateProcedure, GroupKeyword),
	"create unique index":     sym("create unique index", TokenCreateUniqueIndex, GroupKeyword),
	"create view":             sym("create view", TokenCreateView, GroupKeyword),
	"database":                sym("database", TokenDatabase, GroupKeyword),
	"default":                 sym("default", TokenDefault, GroupKeyword),
	"delete":                  sym("delete", TokenDelete, GroupKeyword),
	"desc":                    sym("desc", TokenDesc, GroupKeyword),
	"distinct":                sym("distinct", TokenDistinct, GroupKeyword),
	"drop column":             sym("drop column", TokenDropColumn, GroupKeyword),
	"drop constraint":         sym("drop constraint", TokenDropConstraint, GroupKeyword),
	"drop database":           sym("drop database", TokenDropDatabase, GroupKeyword),
	"drop default":            sym("drop default", TokenDropDefault, GroupKeyword),
	"drop index":              sym("drop index", TokenDropIndex, GroupKeyword),
	"drop table":              sym("drop table", TokenDropTable, GroupKeyword),
	"drop view":               sym("drop view", TokenDropView, GroupKeyword),
	"exec":                    sym("exec", TokenExec, GroupKeyword),
	"exists":                  sym("exists", TokenExists, GroupKeyword),
	"foreign key":             sym("foreign key", TokenForeignKey, GroupKeyword),
	"from":                    sym("from", TokenFrom, GroupKeyword),
	"full outer join":         sym("full outer join", TokenFullOuterJoin, GroupKeyword),
	"group by":                sym("group by", TokenGroupBy, GroupKeyword),
	"having":                  sym("having", TokenHaving, GroupKeyword),
	"in":                      sym("in", TokenIn, GroupKeyword),
	"index":                   sym("index", TokenIndex, GroupKeyword),
	"inner join":              sym("inner join", TokenInnerJoin, GroupKeyword),
	"insert into":             sym("insert into", TokenInsertInto, GroupKeyword),
	"is null":                 sym("is null", TokenIsNull, GroupKeyword),
	"is not null":             sym("is not null", TokenIsNotNull, GroupKeyword),
	"left join":               sym("left join", TokenLeftJoin, GroupKeyword),
	"like":                    sym("like", TokenLike, GroupKeyword),
	"limit":                   sym("limit", TokenLimit, GroupKeyword),
	"not null":                sym("not null", TokenNotNull, GroupKeyword),
	"order by":                sym("order by", TokenOrderBy, GroupKeyword),
	"percent":                 sym("percent", TokenPercent, GroupKeyword),
	"primary key":             sym("primary key", TokenPrimaryKey, GroupKeyword),
	"procedure":               sym("procedure", TokenProcedure, GroupKeyword),
	"right join":              sym("right join", TokenRightJoin, GroupKeyword),
	"rownum":                  sym("rownum", TokenRownum, GroupKeyword),
	"select":                  sym("select", TokenSelect, GroupKeyword),
	"set":                     sym("set", TokenSet, GroupKeyword),
	"table":                   sym("table", TokenTable, GroupKeyword),
	"top":                     sym("top", TokenTop, GroupKeyword),
	"truncate table":          sym("truncate table", TokenTruncateTable, GroupKeyword),
	"union":                   sym("union", TokenUnion, GroupKeyword),
	"union all":               sym("union all", TokenUnionAll, GroupKeyword),
	"unique":                  sym("unique", TokenUnique, GroupKeyword),
	"update":                  sym("update", TokenUpdate, GroupKeyword),
	"values":                  sym("values", TokenValues, GroupKeyword),
	"view":                    sym("view", TokenView, GroupKeyword),
	"where":                   sym("where", TokenWhere, GroupKeyword),

	"avg":   sym("avg", TokenAvg, GroupFunction),
	"count": sym("count", TokenCount, GroupFunction),
	"max":   sym("max", TokenMax, GroupFunction),
	"min":   sym("min", TokenMin, GroupFunction),
	"sum":   sym("sum", TokenSum, GroupFunction),

	"char":    sym("char", TokenChar, GroupDataType),
	"double":  sym("double", TokenDouble, GroupDataType),
	"float":   sym("float", TokenFloat, GroupDataType),
	"int":     sym("int", TokenInt, GroupDataType),
	"varchar": sym("varchar", TokenVarchar, GroupDataType),

	">":   sym(">", TokenGT, GroupOperator),
	">=":  sym(">=", TokenGE, GroupOperator),
	"=":   sym("=", TokenEQ, GroupOperator),
	"!=":  sym("!=", TokenNE, GroupOperator),
	"<>":  sym("<>", TokenNE, GroupOperator),
	"<":   sym("<", TokenLT, GroupOperator),
	"<=":  sym("<=", TokenLE, GroupOperator),
	"and":  sym("and", TokenAND, GroupOperator),
	"not":  sym("not", TokenNOT, GroupOperator),
	"or":   sym("or", TokenOR, GroupOperator),

	"encrypt": sym("encrypt", TokenEncrypt, GroupKeyword),
}

// lookupSymbol returns the keyword/operator/etc. Symbol for exact text s,
// if one is registered.
func lookupSymbol(s string) (Symbol, bool) {
	sy, ok := symbols[s]
	return sy, ok
}

// matchDelimiter classifies a single-character delimiter.
func matchDelimiter(ch rune) (Symbol, bool) {
	switch ch {
	case '(':
		return sym("(", TokenParentLeft, GroupDelimiter), true
	case ')':
		return sym(")", TokenParentRight, GroupDelimiter), true
	case ',':
		return sym(",", TokenComma, GroupDelimiter), true
	case ';':
		return sym(";", TokenSemicolon, GroupDelimiter), true
	default:
		return Symbol{}, false
	}
}

// checkMultiKeywordsFront reports, for a word that may be the first word of
// a multi-word keyword, the candidate total word counts to try — e.g.
// "create" could start a 2-, 3-, or 4-word keyword.
func checkMultiKeywordsFront(s string) ([]int, bool) {
	switch s {
	case "add":
		return []int{2}, true
	case "alter":
		return []int{2}, true
	case "create":
		return []int{2, 3, 4}, true
	case "drop":
		return []int{2}, true
	case "foreign":
		return []int{2}, true
	case "full":
		return []int{2}, true
	case "group":
		return []int{2}, true
	case "inner":
		return []int{2}, true
	case "insert":
		return []int{2}, true
	case "is":
		return []int{2, 3}, true
	case "left":
		return []int{2}, true
	case "not":
		return []int{2}, true
	case "order":
		return []int{2}, true
	case "outer":
		return []int{2}, true
	case "primary":
		return []int{2}, true
	case "right":
		return []int{2}, true
	case "select":
		return []int{2}, true
	case "truncate":
		return []int{2}, true
	case "union":
		return []int{2}, true
	default:
		return nil, false
	}
}
