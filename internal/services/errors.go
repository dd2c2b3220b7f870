// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so the API layer can map them to
// status codes without inspecting messages.
type ErrorKind string

const (
	// KindNotFound covers both absent entities and entities owned by someone
	// else.
	KindNotFound            ErrorKind = "not_found"
	KindInvalidQuantity     ErrorKind = "invalid_quantity"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindConflict            ErrorKind = "conflict"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindIntegrityFailure means a multi-row mutation could not be rolled
	// back and its outcome is unknown.
	KindIntegrityFailure ErrorKind = "integrity_failure"
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of Op and Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidQuantity     = &Error{Kind: KindInvalidQuantity}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrIntegrityFailure    = &Error{Kind: KindIntegrityFailure}
)

func newError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func wrapError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the human readable message of a service error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fmt.Sprint(err)
}
