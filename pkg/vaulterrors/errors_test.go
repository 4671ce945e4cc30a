package vaulterrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with message",
			err: &Error{
				Op:  "Merge",
				Err: ErrParse,
				Msg: "document d1 is not a page bundle",
			},
			expected: "Merge: document d1 is not a page bundle: invalid page container",
		},
		{
			name: "error without message",
			err: &Error{
				Op:  "Grant",
				Err: ErrConflict,
			},
			expected: "Grant: already exists",
		},
		{
			name: "error with nested error",
			err: &Error{
				Op:  "Fetch",
				Err: errors.New("connection refused"),
				Msg: "blob store unreachable",
			},
			expected: "Fetch: blob store unreachable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := Newf("Search", ErrValidation, "query is required")
	if !errors.Is(err, ErrValidation) {
		t.Error("expected wrapped error to match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("did not expect wrapped error to match ErrNotFound")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New("Fetch", ErrUpstreamFetch, "timed out")) {
		t.Error("upstream fetch failures should be retryable")
	}
	for _, err := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrParse, ErrInternal} {
		if IsRetryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrUpstreamFetch, http.StatusBadGateway},
		{ErrParse, http.StatusBadGateway},
		{ErrInternal, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
		{New("Merge", ErrNotFound, "document d2 not found"), http.StatusNotFound},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.code {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.code)
		}
	}
}
