package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when login is rejected with 401.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned when a Bearer token is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for 404 responses. For the medical history
	// endpoint it means no record has been stored yet.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for 409 responses, e.g. registering an email
	// that already exists.
	ErrConflict = errors.New("conflict")
)

// APIError describes a non-2xx response that has no dedicated sentinel.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: unexpected status %d: %s", e.StatusCode, e.Message)
}

// IsTemporary reports whether the failure is worth trying again later.
func (e *APIError) IsTemporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
