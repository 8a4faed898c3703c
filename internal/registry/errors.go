package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	// ErrorNotFound indicates the requested object does not exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRejected indicates the registry refused the request
	ErrorRejected ErrorCategory = "rejected"

	// ErrorUnauthorized indicates an invalid or insufficient API key
	ErrorUnauthorized ErrorCategory = "unauthorized"

	// ErrorBadData indicates the response could not be decoded
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorUnavailable indicates the registry is down or returned a server error
	ErrorUnavailable ErrorCategory = "unavailable"

	// ErrorTimeout indicates the registry took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorNetwork indicates a connection-level failure
	ErrorNetwork ErrorCategory = "network"
)

// ErrNotFound matches any registry error in the not_found category.
var ErrNotFound = errors.New("registry object not found")

// Error wraps a registry failure with its category.
type Error struct {
	Category ErrorCategory
	Op       string
	Message  string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Op, e.Category, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match not_found errors.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Category == ErrorNotFound
}

// Transient reports whether the failure is worth retrying.
func (e *Error) Transient() bool {
	switch e.Category {
	case ErrorTimeout, ErrorNetwork, ErrorUnavailable, ErrorRateLimited:
		return true
	default:
		return false
	}
}

// NewError creates a categorized registry error.
func NewError(category ErrorCategory, op, message string, err error) *Error {
	return &Error{Category: category, Op: op, Message: message, Err: err}
}

// IsTransient reports whether err is a transport-class failure. Errors that
// were never classified are run through Classify first.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return Classify("", err).Transient()
}

// GetCategory extracts the category from err.
func GetCategory(err error) ErrorCategory {
	return Classify("", err).Category
}

// Classify maps an arbitrary error onto the registry taxonomy. Already
// categorized errors are returned unchanged.
func Classify(op string, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrorTimeout, op, "deadline exceeded", err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return NewError(ErrorNetwork, op, "connection failed", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewError(ErrorTimeout, op, "request timed out", err)
		}
		return NewError(ErrorNetwork, op, "network error", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewError(ErrorNetwork, op, "network error", err)
	}

	return NewError(ErrorRejected, op, "request failed", err)
}
