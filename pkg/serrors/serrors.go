// Package serrors provides semantic error kinds shared by the checker, the
// merger and the HTTP layer. A kind tells callers what went wrong; the wrapped
// cause tells them why.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is implemented by every sentinel created with NewKind. The unexported
// marker method keeps ordinary errors from passing as a semantic kind.
type Kind interface {
	error
	isKind()
}

// kind is the sentinel behind every Kind. Its string is the wire code the
// HTTP layer reports.
type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a semantic error kind. Kinds are comparable and match
// through errors.Is/As on a wrapping *Error.
func NewKind(name string) Kind { return kind{s: name} }

// Cookie file kinds. They map one to one onto a status reason and are never
// fatal to a check.
var (
	// ErrMissingFile indicates no candidate cookie file could be read.
	ErrMissingFile = NewKind("MISSING_FILE")
	// ErrExampleFile indicates the file is the shipped template or carries its placeholders.
	ErrExampleFile = NewKind("EXAMPLE_FILE")
	// ErrMalformedLine indicates a line that does not decompose into seven fields.
	ErrMalformedLine = NewKind("MALFORMED_LINE")
	// ErrExpiredCookies indicates every cookie expiration lies in the past.
	ErrExpiredCookies = NewKind("EXPIRED_COOKIES")
)

// API kinds. The HTTP layer maps each of them onto a status code and reports
// the kind name as the error code in the response body.
var (
	// ErrNotFound indicates the requested route or resource does not exist (404).
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrUnauthorized indicates a missing, malformed or rejected bearer token (401).
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrBadRequest indicates the client sent a request the server cannot use (400).
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrUnavailable indicates the server gave up on the request, for example
	// when it exceeded the request timeout (503).
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrInternal indicates a failure on the server side (500). Kinds with no
	// explicit mapping are reported as ErrInternal too.
	ErrInternal = NewKind("INTERNAL")
)

// Error carries a semantic kind, an optional wrapped cause and an optional
// human-readable message.
//
// Matching:
//   - errors.Is(err, target) succeeds when target is the kind or matches the
//     cause chain.
//   - errors.As(err, target) succeeds for the kind or anything in the cause
//     chain.
//
// Formatting:
//   - message and cause: "<msg>: <cause>"
//   - message only: "<msg>"
//   - cause only: "<cause>"
//   - neither: the kind name
type Error struct {
	kind Kind  // semantic sentinel
	err  error // cause, optional
	msg  string
}

// With builds an error of kind k with a formatted message and no cause. Use
// Wrap when a lower-level error should stay reachable through errors.Is.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap builds an error of kind k around the cause err, prefixed with a
// formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly builds an error that carries nothing but its kind. Its message is
// the kind name.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the cause so the standard errors helpers walk past the kind.
func (e *Error) Unwrap() error { return e.err }

// Is matches target against the kind first, then against the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As assigns the kind or the first matching error in the cause chain to target.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the kind, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the attached message.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause, or nil.
func (e *Error) Cause() error { return e.err }

// KindOf returns the first kind found in err's chain, or nil when err carries
// none.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}
