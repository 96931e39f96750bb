// Package common defines shared constants and sentinel errors used across
// the server layers of jobtracker. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors. Field details travel in validation.Errors.
	ErrValidation = errors.New("validation failed")

	// Credential errors. Unknown user and wrong password are the same error.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Request pipeline errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrCSRFInvalid     = errors.New("invalid csrf token")

	// ErrStoreUnavailable marks failures of the session or persistence store.
	// It is fatal for the current request and never degrades to anonymous.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Token errors (session cookie).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
