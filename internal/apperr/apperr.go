// Package apperr is the error taxonomy shared by services and handlers.
// Services return *Error values; the api package maps Kind to an HTTP
// status in exactly one place.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalid     Kind = "invalid"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return New(KindInvalid, fmt.Sprintf(format, args...))
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, msg)
}

func Conflict(msg string, err error) *Error {
	return Wrap(KindConflict, msg, err)
}

func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message. Unclassified errors never
// expose their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
