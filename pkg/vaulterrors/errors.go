// Package vaulterrors defines the error taxonomy shared by the vault
// components. Handlers map these to HTTP status codes; callers use the
// sentinels with errors.Is to distinguish "fix the request" failures
// from "retry later" failures.
package vaulterrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the vault error taxonomy.
var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound indicates an absent document, user, grant, or artifact.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the authorization predicate failed.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a duplicate uniqueness-constrained write.
	ErrConflict = errors.New("already exists")

	// ErrUpstreamFetch indicates the blob store was unreachable or timed out.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrParse indicates stored content is not a valid page container.
	ErrParse = errors.New("invalid page container")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = errors.New("internal error")
)

// Error wraps a sentinel with the operation that failed and an optional
// human-readable message.
type Error struct {
	// Op is the operation that failed (e.g. "Merge", "Grant").
	Op string

	// Err is one of the sentinel errors above, or an underlying error.
	Err error

	// Msg is an optional human-readable message.
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error wrapping the given sentinel.
func New(op string, err error, msg string) *Error {
	return &Error{Op: op, Err: err, Msg: msg}
}

// Newf is New with a formatted message.
func Newf(op string, err error, format string, args ...any) *Error {
	return &Error{Op: op, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// IsRetryable reports whether the error is transient and worth retrying.
// Only upstream fetch failures qualify; everything else requires the
// caller to change the request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamFetch)
}

// StatusCode maps an error to the HTTP status code handlers respond with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamFetch), errors.Is(err, ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
