// Package apperror classifies service errors so handlers can pick an HTTP
// status without string-matching error messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the class of failure
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAccessDenied
	KindConflict
	KindStorage
	KindRender
)

// Error carries a kind alongside the wrapped cause
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from anywhere in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the response code the API contract expects.
// Conflicts surface as 400, the code clients already handle for
// over-payments and duplicate SKUs.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
