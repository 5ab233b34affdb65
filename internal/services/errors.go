package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies registry failures
type ErrorKind string

// Error kinds
const (
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidState      ErrorKind = "invalid_state"
	KindAlreadyTaken      ErrorKind = "already_taken"
	KindAlreadyRegistered ErrorKind = "already_registered"
	KindEscrowFailure     ErrorKind = "escrow_failure"
	KindStaleSignature    ErrorKind = "stale_signature"
	KindNotFound          ErrorKind = "not_found"
)

// Sentinel errors, one per kind. Match them with errors.Is.
var (
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrAlreadyTaken      = &Error{Kind: KindAlreadyTaken}
	ErrAlreadyRegistered = &Error{Kind: KindAlreadyRegistered}
	ErrEscrowFailure     = &Error{Kind: KindEscrowFailure}
	ErrStaleSignature    = &Error{Kind: KindStaleSignature}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// Error is a typed registry failure
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidState) works for every invalid state failure
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a registry error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...interface{}) *Error {
	return newError(KindInvalidArgument, format, args...)
}

func unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

func invalidState(format string, args ...interface{}) *Error {
	return newError(KindInvalidState, format, args...)
}

func notFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func escrowFailure(err error) *Error {
	return &Error{Kind: KindEscrowFailure, Msg: "escrow failure", Err: err}
}
