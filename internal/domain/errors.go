package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthenticated is returned when an operation requires an active
	// session and none is present.
	ErrNotAuthenticated = errors.New("no active session")

	// ErrInvalidThemeMode is returned when a theme mode is outside the
	// closed set of supported modes.
	ErrInvalidThemeMode = errors.New("invalid theme mode")

	// ErrInvalidReportStatus is returned when a report status is not valid.
	ErrInvalidReportStatus = errors.New("invalid report status")

	// ErrEmptyToken is returned when a session is created without a token.
	ErrEmptyToken = errors.New("session token cannot be empty")

	// ErrEmptyEmail is returned when a profile has no email.
	ErrEmptyEmail = errors.New("email cannot be empty")
)
