package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned by Get when a key has no value.
	// Callers treat it as "absent" rather than as a failure.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrUnknownDriver is returned when a backend name is not recognised.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// IsNotFoundError checks if the error is a "key absent" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Backend   string // The backend name (e.g., "sqlite", "redis")
	Operation string // The operation that failed (e.g., "get", "set")
	Key       string // The key involved, if any
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q failed: %v", e.Backend, e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given backend, operation, key, and wrapped error.
func NewStoreError(backend, operation, key string, err error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Key:       key,
		Err:       err,
	}
}
