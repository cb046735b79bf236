// Package errors provides the structured error type shared by the plan
// parser, the resolver and the outer adapters.
package errors

// Always import the project errors package as perr

import (
	stderrs "errors"
	"fmt"
	"strings"
)

// Kind classifies an error. Values are stable; add sparingly
type Kind uint16

const (
	// KindUnknown is for unclassified errors
	KindUnknown Kind = iota

	// KindSyntax is for malformed statement text
	KindSyntax

	// KindSemantic is for well-formed text that means something impossible:
	// unknown variables, invalid calendar dates, fractional deltas where a
	// whole-day interval is required, moves without a source
	KindSemantic

	// KindEvaluation is for failures while evaluating a formula for one day
	KindEvaluation

	// KindConfig is for configuration problems
	KindConfig

	// KindIO is for file and network problems
	KindIO
)

// String returns the lowercase kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindEvaluation:
		return "evaluation"
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Pos is a 1-based source position. The zero Pos means "unknown"
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether p carries a line number
func (p Pos) IsValid() bool { return p.Line > 0 }

// String renders p as line:column
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Column <= 0 {
		return fmt.Sprintf("%d", p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Shift returns p moved right by n columns on the same line
func (p Pos) Shift(n int) Pos {
	if p.Column <= 0 {
		return p
	}
	return Pos{Line: p.Line, Column: p.Column + n}
}

// Error is the structured error type
// msg is human facing; kind is machine facing
// entry identifies the owning plan entry, pos the source location,
// date the candidate day the error happened on (formula evaluation)
type Error struct {
	orig  error
	msg   string
	kind  Kind
	entry string
	pos   Pos
	date  string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.entry != "" {
		b.WriteString(e.entry)
		b.WriteString(": ")
	}
	if e.pos.IsValid() {
		b.WriteString(e.pos.String())
		b.WriteString(": ")
	}
	b.WriteString(e.kind.String())
	b.WriteString(" error: ")
	b.WriteString(e.msg)
	if e.date != "" {
		b.WriteString(" (at ")
		b.WriteString(e.date)
		b.WriteString(")")
	}
	if e.orig != nil {
		b.WriteString(": ")
		b.WriteString(e.orig.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind
func (e *Error) Kind() Kind { return e.kind }

// Message returns the bare message without location prefixes
func (e *Error) Message() string { return e.msg }

// Entry returns the owning entry identity, if set
func (e *Error) Entry() string { return e.entry }

// Pos returns the source position, if set
func (e *Error) Pos() Pos { return e.pos }

// Date returns the candidate date, if set
func (e *Error) Date() string { return e.date }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts a Kind from any error, defaulting to Unknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// IsKind reports whether err has the given kind
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// Mutators (copy-on-write)

// WithEntry attaches an entry identity. Foreign errors are wrapped with KindUnknown
func WithEntry(err error, entry string) error {
	if err == nil {
		return nil
	}
	e := adopt(err)
	c := *e
	c.entry = entry
	return &c
}

// WithPos attaches a position unless one is already set
func WithPos(err error, pos Pos) error {
	if err == nil {
		return nil
	}
	e := adopt(err)
	if e.pos.IsValid() {
		return e
	}
	c := *e
	c.pos = pos
	return &c
}

// WithDate attaches the candidate date an evaluation failed on
func WithDate(err error, date string) error {
	if err == nil {
		return nil
	}
	e := adopt(err)
	c := *e
	c.date = date
	return &c
}

func adopt(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return &Error{kind: KindUnknown, msg: err.Error(), orig: err}
}

// Constructors

// New returns a new *Error with the given kind and message
func New(kind Kind, msg string) error { return &Error{kind: kind, msg: msg} }

// Newf returns a new *Error with kind and formatted message
func Newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// At returns a new *Error with kind, position and formatted message
func At(kind Kind, pos Pos, format string, a ...any) error {
	return &Error{kind: kind, pos: pos, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with kind and message
func Wrap(orig error, kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with kind and formatted message
func Wrapf(orig error, kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Sugar

// Syntaxf returns a syntax error at pos
func Syntaxf(pos Pos, format string, a ...any) error { return At(KindSyntax, pos, format, a...) }

// Semanticf returns a semantic error at pos
func Semanticf(pos Pos, format string, a ...any) error { return At(KindSemantic, pos, format, a...) }

// Evalf returns an evaluation error at pos
func Evalf(pos Pos, format string, a ...any) error { return At(KindEvaluation, pos, format, a...) }
