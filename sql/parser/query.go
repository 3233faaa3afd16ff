// Package parser consumes a lexer.Symbol stream and produces either a DDL
// statement (applied directly to a session's catalog.Database) or, for
// SELECT, a QueryData value carrying a postfix-built predicate tree.
// Grounded on original_source/src/sql/query.rs and src/sql/parser.rs, and
// spec.md §4.6.
package parser

import "stellarsql/internal/xerr"

// SortDirection is the declared ORDER BY direction (evaluation is out of
// scope per spec.md §4.6; the parser only records what it parsed).
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// TopKind distinguishes a TOP clause expressed as a row count from one
// expressed as a percentage.
type TopKind int

const (
	TopNone TopKind = iota
	TopNumber
	TopPercent
)

// Top is a parsed (but, per spec, unevaluated) TOP clause.
type Top struct {
	Kind  TopKind
	Value float64
}

// Node is one predicate-tree node: leaves carry only Root (an identifier
// or literal's source text); comparison/AND/OR nodes carry both children;
// NOT carries only Right; IS NULL/IS NOT NULL (spec.md §11.2) carry only
// Left, since they're postfix unary. Set is populated post-order during
// Worker execution (spec.md §4.7) and is left nil until then.
type Node struct {
	Root  string
	Left  *Node
	Right *Node
	Set   map[int]struct{}
}

// Leaf builds a childless predicate node.
func Leaf(root string) *Node { return &Node{Root: root} }

// WithChildren returns n with both children attached (comparison/AND/OR).
func (n *Node) WithChildren(left, right *Node) *Node {
	n.Left = left
	n.Right = right
	return n
}

// WithRight returns n with only a right child attached (NOT).
func (n *Node) WithRight(right *Node) *Node {
	n.Right = right
	return n
}

// WithLeft returns n with only a left child attached (IS NULL/IS NOT NULL).
func (n *Node) WithLeft(left *Node) *Node {
	n.Left = left
	return n
}

// IsLeaf reports whether n has no children (a terminal identifier/literal,
// or a comparison node already collapsed post-evaluation).
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// QueryData is the parsed representation of a SELECT statement.
type QueryData struct {
	Fields        []string
	Tables        []string
	Predicate     *Node
	GroupFields   []string
	SortFields    []string
	SortDirection SortDirection
	IsDistinct    bool
	Top           Top
}

func syntaxErr(msg string) error {
	return xerr.New(xerr.Syntax, "UnexpectedToken", msg)
}

// semanticErr wraps xerr.Semantic, for statement kinds that parse
// correctly but describe something the worker doesn't implement
// (spec.md §11.2), as distinct from xerr.Syntax malformed-input errors.
func semanticErr(code, msg string) error {
	return xerr.New(xerr.Semantic, code, msg)
}
