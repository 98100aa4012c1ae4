// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity or blob artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrAuthRequired indicates a non-public resource was requested anonymously.
	// Distinct from ErrForbidden: the caller supplied no identity at all.
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden indicates the access evaluator denied the request.
	ErrForbidden = errors.New("access denied")

	// ErrUnauthorized indicates the caller lacks authority for an admin operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDecryption indicates ciphertext/nonce inconsistency or truncation.
	// Treated as fatal for the request; garbage bytes are never returned.
	ErrDecryption = errors.New("decryption failed")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., role name taken).
	ErrAlreadyExists = errors.New("already exists")
)
