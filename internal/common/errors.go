// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input validation.
	ErrValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountInactive    = errors.New("account is disabled")

	// Access token errors (stateless JWT).
	ErrInvalidToken = errors.New("invalid token")

	// Stored token lifecycle errors. The fine-grained values stay internal to
	// the stores; services collapse them into ErrInvalidActionToken or
	// ErrInvalidRefreshToken before anything reaches a client.
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenAlreadyUsed    = errors.New("token already used")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidActionToken  = errors.New("invalid or expired token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Secure random source failure. Fatal for the request, never retried.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")
)
