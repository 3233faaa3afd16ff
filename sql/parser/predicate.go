package parser

import "stellarsql/sql/lexer"

func isComparison(tok lexer.Token) bool {
	switch tok {
	case lexer.TokenLT, lexer.TokenLE, lexer.TokenEQ, lexer.TokenNE, lexer.TokenGT, lexer.TokenGE:
		return true
	default:
		return false
	}
}

func isBinaryLogical(tok lexer.Token) bool {
	return tok == lexer.TokenAND || tok == lexer.TokenOR
}

// isNullCheck reports whether tok is the postfix unary IS NULL/IS NOT NULL
// operator (spec.md §11.2): unlike NOT, its one operand precedes it in
// infix order.
func isNullCheck(tok lexer.Token) bool {
	return tok == lexer.TokenIsNull || tok == lexer.TokenIsNotNull
}

func isOperator(tok lexer.Token) bool {
	return tok == lexer.TokenNOT || isBinaryLogical(tok) || isComparison(tok) || isNullCheck(tok)
}

// precedence follows spec.md §4.6: NOT=2, AND/OR=1, comparisons=3. IS
// NULL/IS NOT NULL bind like a comparison against their one operand.
func precedence(tok lexer.Token) int {
	switch {
	case tok == lexer.TokenNOT:
		return 2
	case isBinaryLogical(tok):
		return 1
	case isComparison(tok) || isNullCheck(tok):
		return 3
	default:
		return 0
	}
}

// InfixToPostfix runs the Dijkstra shunting-yard translation described in
// spec.md §4.6 over a WHERE clause's token subsequence.
func InfixToPostfix(tokens []lexer.Symbol) ([]lexer.Symbol, error) {
	output := make([]lexer.Symbol, 0, len(tokens))
	stack := make([]lexer.Symbol, 0, len(tokens))

	for _, t := range tokens {
		switch {
		case t.Token == lexer.TokenParentLeft:
			stack = append(stack, t)

		case t.Token == lexer.TokenParentRight:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Token == lexer.TokenParentLeft {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, syntaxErr("unmatched closing parenthesis")
			}

		case isOperator(t.Token):
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Token == lexer.TokenParentLeft {
					break
				}
				if precedence(top.Token) >= precedence(t.Token) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)

		default:
			output = append(output, t)
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Token == lexer.TokenParentLeft {
			return nil, syntaxErr("unmatched opening parenthesis")
		}
		output = append(output, top)
	}

	return output, nil
}

// PostfixToTree builds the predicate tree from a postfix token sequence
// (spec.md §4.6 step 2): binary operators pop right then left; NOT pops
// only right; IS NULL/IS NOT NULL pop only left, since their operand is
// already on the stack by the time the postfix operator token arrives.
// Exactly one node must remain, else it's a syntax error.
func PostfixToTree(postfix []lexer.Symbol) (*Node, error) {
	stack := make([]*Node, 0, len(postfix))

	for _, t := range postfix {
		switch {
		case t.Token == lexer.TokenNOT:
			if len(stack) < 1 {
				return nil, syntaxErr("not has no operand")
			}
			right := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, Leaf(t.Name).WithRight(right))

		case isNullCheck(t.Token):
			if len(stack) < 1 {
				return nil, syntaxErr(t.Name + " has no operand")
			}
			left := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, Leaf(t.Name).WithLeft(left))

		case isBinaryLogical(t.Token) || isComparison(t.Token):
			if len(stack) < 2 {
				return nil, syntaxErr("operator missing operand")
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, Leaf(t.Name).WithChildren(left, right))

		default:
			stack = append(stack, Leaf(t.Name))
		}
	}

	if len(stack) != 1 {
		return nil, syntaxErr("predicate did not reduce to a single tree")
	}
	return stack[0], nil
}

// ParsePredicate translates a WHERE clause's tokens directly into its
// predicate tree.
func ParsePredicate(tokens []lexer.Symbol) (*Node, error) {
	postfix, err := InfixToPostfix(tokens)
	if err != nil {
		return nil, err
	}
	return PostfixToTree(postfix)
}
