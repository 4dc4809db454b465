// Package apierr defines the closed error-kind taxonomy surfaced to RPC
// callers: invalid_argument, cli_missing, resource_exhausted, not_found,
// dangerous_path, internal. The manager and agentcli layers return plain
// Go errors; this package lets the RPC layer classify them without a
// central type switch over string messages.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy's closed set of error kinds.
type Kind string

const (
	InvalidArgument   Kind = "invalid_argument"
	CLIMissing        Kind = "cli_missing"
	ResourceExhausted Kind = "resource_exhausted"
	NotFound          Kind = "not_found"
	DangerousPath     Kind = "dangerous_path"
	Internal          Kind = "internal"
)

// Error pairs a taxonomy Kind with a short operator-facing message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping err's message.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error()}
}

// KindOf classifies err: an *Error's own Kind if err unwraps to one,
// Internal otherwise. nil input is not a valid call.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
