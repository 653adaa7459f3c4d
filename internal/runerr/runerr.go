// Package runerr defines the typed, run-aborting errors raised while
// dispatching messages and loading tables. Every fatal condition carries a
// Kind so callers can branch with errors.As instead of matching strings.
package runerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fatal run error.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedInput
	KindUnrecognizedMessage
	KindUndeclaredStream
	KindSchemaViolation
	KindInvalidSchema
	KindStorage
	KindInsert
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed_input"
	case KindUnrecognizedMessage:
		return "unrecognized_message"
	case KindUndeclaredStream:
		return "undeclared_stream"
	case KindSchemaViolation:
		return "schema_violation"
	case KindInvalidSchema:
		return "invalid_schema"
	case KindStorage:
		return "storage"
	case KindInsert:
		return "insert"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is a fatal run error. Stream and Line are optional context; Line is
// 1-based and zero when the error is not tied to an input line.
type Error struct {
	Kind   Kind
	Stream string
	Line   int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Stream != "" {
		fmt.Fprintf(&b, ": stream %q", e.Stream)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf formats a new error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ForStream wraps err with kind and stream context.
func ForStream(kind Kind, stream string, err error) *Error {
	return &Error{Kind: kind, Stream: stream, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
