// Package lrkerrors defines the error taxonomy shared by the grammar loader,
// table builder, codec, and runtime parser. Every fatal condition in this
// module is reported through one of the constructors here so that a CLI can
// convert it to an exit code without inspecting error strings.
package lrkerrors

import (
	"errors"
	"fmt"
)

// Code identifies which part of the taxonomy an error belongs to.
type Code int

const (
	// GrammarSyntax is a malformed production line or a missing start
	// nonterminal.
	GrammarSyntax Code = iota

	// BuildConflict is a shift/reduce or reduce/reduce conflict detected
	// during table construction.
	BuildConflict

	// KMismatch is raised when a table file's recorded k differs from the
	// runtime's k.
	KMismatch

	// IOError wraps a file open/read/write failure.
	IOError

	// UnknownToken is raised when input text contains a word absent from the
	// symbol table.
	UnknownToken

	// SyntaxError is raised when no action is defined for the current
	// (state, lookahead) pair.
	SyntaxError

	// CorruptTable is raised when a GOTO entry is missing after a SHIFT, or
	// the binary table is otherwise inconsistent.
	CorruptTable
)

func (c Code) String() string {
	switch c {
	case GrammarSyntax:
		return "GrammarSyntax"
	case BuildConflict:
		return "BuildConflict"
	case KMismatch:
		return "KMismatch"
	case IOError:
		return "IOError"
	case UnknownToken:
		return "UnknownToken"
	case SyntaxError:
		return "SyntaxError"
	case CorruptTable:
		return "CorruptTable"
	default:
		return "Unknown"
	}
}

// lrkError is the concrete error type returned by every constructor in this
// package. It carries a Code so callers can switch on the kind of failure
// without string matching, plus an optional wrapped cause.
type lrkError struct {
	code Code
	msg  string
	wrap error
}

func (e *lrkError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *lrkError) Unwrap() error {
	return e.wrap
}

// GetCode returns the taxonomy code of err, if err (or something it wraps) is
// an error from this package. The second return is false otherwise.
func GetCode(err error) (Code, bool) {
	var le *lrkError
	if errors.As(err, &le) {
		return le.code, true
	}
	return 0, false
}

// Is allows errors.Is(err, lrkerrors.ErrBuildConflict) style checks by
// comparing codes rather than identity.
func (e *lrkError) Is(target error) bool {
	other, ok := target.(*lrkError)
	if !ok {
		return false
	}
	return e.code == other.code
}

func New(code Code, format string, a ...interface{}) error {
	return &lrkError{code: code, msg: fmt.Sprintf(format, a...)}
}

func Wrap(code Code, cause error, format string, a ...interface{}) error {
	return &lrkError{code: code, msg: fmt.Sprintf(format, a...), wrap: cause}
}

// Sentinel values usable with errors.Is for a bare code check, e.g.
// errors.Is(err, lrkerrors.ErrBuildConflict).
var (
	ErrGrammarSyntax = &lrkError{code: GrammarSyntax, msg: "grammar syntax"}
	ErrBuildConflict = &lrkError{code: BuildConflict, msg: "build conflict"}
	ErrKMismatch     = &lrkError{code: KMismatch, msg: "k mismatch"}
	ErrIOError       = &lrkError{code: IOError, msg: "io error"}
	ErrUnknownToken  = &lrkError{code: UnknownToken, msg: "unknown token"}
	ErrSyntaxError   = &lrkError{code: SyntaxError, msg: "syntax error"}
	ErrCorruptTable  = &lrkError{code: CorruptTable, msg: "corrupt table"}
)
