package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// Structural errors: a directive where it is not expected, an unterminated block.
	Structural ErrorKind = iota + 1
	// Lexical errors: malformed literal, unknown opcode, bad descriptor.
	Lexical
	// Incomplete errors: input left over after a complete unit was parsed.
	Incomplete
)

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrStructural = errors.New("structural error")
	ErrLexical    = errors.New("lexical error")
	ErrIncomplete = errors.New("trailing input")
)

func (k ErrorKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Lexical:
		return "lexical"
	case Incomplete:
		return "incomplete"
	}
	return "unknown"
}

// ParseError is the single error type produced while decoding smali text or
// descriptors. Line and Column are 1-based; both are zero when the error does
// not come from a source file (for example a bare descriptor).
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return e.Msg
}

// Unwrap exposes the kind sentinel so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case Structural:
		return ErrStructural
	case Lexical:
		return ErrLexical
	case Incomplete:
		return ErrIncomplete
	}
	return nil
}

func lexicalf(format string, args ...any) *ParseError {
	return &ParseError{Kind: Lexical, Msg: fmt.Sprintf(format, args...)}
}
