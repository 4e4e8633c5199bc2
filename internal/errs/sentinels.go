// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Storage-level sentinels returned by repositories.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)

// Credential and session sentinels.
var (
	// ErrDuplicateUser is returned by registration when the username is taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUserNotFound is returned when a login or account operation names an unknown user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOTP indicates a wrong, expired or unexpected one-time code.
	ErrInvalidOTP = errors.New("invalid one-time code")

	// ErrUnauthorized indicates the caller has no authenticated identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary lock due to repeated failures.
	ErrRateLimited = errors.New("rate limited")
)

// File vault sentinels.
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotOwner           = errors.New("not the owner")
	ErrTargetUserNotFound = errors.New("target user not found")
)

// Input validation sentinels.
var (
	// ErrOversizeInput is returned by the threat gate when a filename or content exceeds its bound.
	ErrOversizeInput = errors.New("input too large")

	// ErrMaliciousContentDetected is returned by the threat gate on a signature or digest match.
	ErrMaliciousContentDetected = errors.New("malicious content detected")

	// ErrInvalidIDFormat is returned when a file id cannot be parsed.
	ErrInvalidIDFormat = errors.New("invalid id format")

	// ErrInvalidInput covers empty or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
)
