package lexer

import (
	"strings"

	"stellarsql/internal/xerr"
)

// Scanner tokenizes one line of SQL text into a flat Symbol stream.
type Scanner struct {
	message []rune
	tokens  []Symbol
}

// NewScanner prepares a Scanner over message, lowercased and trimmed —
// StellarSQL's lexer is case-insensitive over keywords and identifiers
// alike (original_source/src/sql/lexer.rs Scanner::new).
func NewScanner(message string) *Scanner {
	return &Scanner{message: []rune(strings.TrimSpace(strings.ToLower(message)))}
}

// ScanTokens runs the full scan, consuming the Scanner. A character outside
// [0-9a-z'."(),; \t\r\n*<>=!] is NotAllowedChar, as is a run of <>=! that
// is not a known operator.
func (s *Scanner) ScanTokens() ([]Symbol, error) {
	n := len(s.message)
	i := 0
	wordStart := 0

	for i < n {
		x := s.message[i]

		if isIdentifierChar(x) {
			i++
			continue
		}

		switch {
		case isWordBoundary(x) || strings.ContainsRune("<>=!", x):
			if wordStart != i {
				word := string(s.message[wordStart:i])
				isMultiKeyword := false

				if isWhitespace(x) {
					if parts, ok := checkMultiKeywordsFront(word); ok {
						for _, totalParts := range parts {
							testStr := word + " "
							isLastLetter := false
							stepCounter := 0
							followingParts := 0

							j := i + 1
						scanCandidate:
							for j < n {
								y := s.message[j]
								switch {
								case isASCIIAlpha(y):
									isLastLetter = true
									testStr += string(y)
								case isWhitespace(y):
									if isLastLetter {
										followingParts++
										if followingParts == totalParts-1 {
											break scanCandidate
										}
										testStr += " "
										isLastLetter = false
									}
								default:
									break scanCandidate
								}
								j++
								stepCounter++
							}

							if sy, ok := lookupSymbol(testStr); ok {
								s.tokens = append(s.tokens, sy)
								i += stepCounter
								isMultiKeyword = true
								break
							}
						}
					}
				}

				if !isMultiKeyword {
					if sy, ok := lookupSymbol(word); ok {
						s.tokens = append(s.tokens, sy)
					} else {
						s.tokens = append(s.tokens, sym(word, TokenIdentifier, GroupIdentifier))
					}
				}
			}
			if isDelimiter(x) {
				d, _ := matchDelimiter(x)
				s.tokens = append(s.tokens, d)
			}
			if strings.ContainsRune("<>=!", x) {
				j := i + 1
				for j < n && strings.ContainsRune("<>=!", s.message[j]) {
					j++
				}
				op, ok := lookupSymbol(string(s.message[i:j]))
				if !ok {
					return nil, xerr.New(xerr.Lexical, "NotAllowedChar", "unknown operator "+string(s.message[i:j]))
				}
				s.tokens = append(s.tokens, op)
				i = j - 1
			}
			i++
			wordStart = i

		case x == '*':
			s.tokens = append(s.tokens, sym("*", TokenIdentifier, GroupIdentifier))
			i++
			wordStart = i

		default:
			return nil, xerr.New(xerr.Lexical, "NotAllowedChar", "please use ascii character")
		}
	}

	return s.tokens, nil
}

func isIdentifierChar(ch rune) bool {
	return isASCIIDigit(ch) || isASCIIAlpha(ch) || ch == '\'' || ch == '.' || ch == '"'
}

func isASCIIDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isASCIIAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDelimiter(ch rune) bool {
	return ch == '(' || ch == ')' || ch == ',' || ch == ';'
}

func isWordBoundary(ch rune) bool {
	return isWhitespace(ch) || isDelimiter(ch)
}
