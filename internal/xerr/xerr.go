// Package xerr implements the typed error taxonomy StellarSQL surfaces to
// clients (spec.md §7): every error a component returns carries a Kind
// (the outermost category shown to the wire client) and a Code (the
// component-specific reason), and wraps the error that caused it so
// %w-based chains reconstruct the exact propagation path spec.md §7
// describes ("parser wraps lexer; worker wraps storage; pool wraps worker
// + storage; request wraps pool + parser").
package xerr

import (
	"errors"
	"fmt"
)

// Kind is the outermost error category surfaced to the wire client.
type Kind string

const (
	Lexical    Kind = "LexicalError"
	Syntax     Kind = "SyntaxError"
	Semantic   Kind = "SemanticError"
	Insert     Kind = "InsertViolation"
	Select     Kind = "SelectViolation"
	Storage    Kind = "StorageError"
	Codec      Kind = "CodecError"
	BadRequest Kind = "BadRequest"
)

// Error is the concrete error type every StellarSQL component returns.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a leaf error (no wrapped cause).
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an error that reports as kind/code but preserves err for
// %w-chain inspection (errors.Is/errors.As and error-kind-check helpers
// below still see the wrapped cause).
func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: err.Error(), Err: err}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// CodeOf returns the Code of the first *Error found in err's chain.
func CodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return ""
}
