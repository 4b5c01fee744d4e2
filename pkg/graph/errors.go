package graph

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers are expected to switch on it
// (spec §4.1, §7). Kinds are not Go types — every error crossing the
// Backend boundary is a *graph.Error carrying one of these five kinds.
type Kind int

const (
	// KindConnection covers engine/IO open failures and storage
	// corruption detected on open (bad magic, bad version, bad checksum,
	// inconsistent adjacency) — corruption prevents safe use of the
	// store, so it surfaces as Connection rather than a narrower kind.
	KindConnection Kind = iota
	// KindSchema covers DDL or migration failures.
	KindSchema
	// KindQuery covers runtime query failures (a well-formed request
	// that the engine could not execute).
	KindQuery
	// KindNotFound covers addressing a missing entity.
	KindNotFound
	// KindInvalidInput covers validation failures caught before any
	// write is attempted.
	KindInvalidInput
)

// String renders the kind for log lines and error messages.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindSchema:
		return "schema"
	case KindQuery:
		return "query"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is the only error shape callers see at the Backend API boundary.
// Humans read Message; programs switch on Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

func newError(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

// Wrap builds a *graph.Error of the given kind around an operation name and
// an underlying cause, following steveyegge-beads's wrapDBError convention.
func Wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Message: op, Err: err}
}

// NotFoundf builds a KindNotFound error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidInputf builds a KindInvalidInput error with a formatted message.
func InvalidInputf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Queryf builds a KindQuery error with a formatted message.
func Queryf(format string, args ...any) error {
	return &Error{Kind: KindQuery, Message: fmt.Sprintf(format, args...)}
}

// Connectionf builds a KindConnection error with a formatted message.
func Connectionf(format string, args ...any) error {
	return &Error{Kind: KindConnection, Message: fmt.Sprintf(format, args...)}
}

// Schemaf builds a KindSchema error with a formatted message.
func Schemaf(format string, args ...any) error {
	return &Error{Kind: KindSchema, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it is (or wraps) a *graph.Error,
// returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}

// Is reports whether err is a *graph.Error of the given kind.
func Is(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}
