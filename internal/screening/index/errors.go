package index

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory is the normalized retrieval failure taxonomy.
type ErrorCategory string

const (
	// ErrorTimeout means the backend did not answer in time.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorBadData means the backend answered with rows that could not be decoded.
	ErrorBadData ErrorCategory = "bad_data"
	// ErrorUnavailable means the backend could not be reached.
	ErrorUnavailable ErrorCategory = "unavailable"
	// ErrorInternal covers everything else.
	ErrorInternal ErrorCategory = "internal"
)

// RetrievalError wraps a backend failure. A screening call that sees one
// fails as a whole; partial candidate sets are never scored.
type RetrievalError struct {
	Category   ErrorCategory
	Backend    string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *RetrievalError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("index %s [%s]: %s: %v", e.Backend, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("index %s [%s]: %s", e.Backend, e.Category, e.Message)
}

func (e *RetrievalError) Unwrap() error {
	return e.Underlying
}

// NewRetrievalError builds a RetrievalError; timeouts and outages are retryable.
func NewRetrievalError(category ErrorCategory, backend, message string, underlying error) *RetrievalError {
	return &RetrievalError{
		Category:   category,
		Backend:    backend,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorUnavailable,
	}
}

// classify picks a category for a raw backend error.
func classify(err error) ErrorCategory {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.Is(err, context.Canceled):
		return ErrorInternal
	default:
		return ErrorUnavailable
	}
}

// IsRetryable reports whether err is a retryable RetrievalError.
func IsRetryable(err error) bool {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// Category extracts the error category, ErrorInternal for foreign errors.
func Category(err error) ErrorCategory {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Category
	}
	return ErrorInternal
}
