package errors

import "errors"

// Common application errors. Services wrap these with %w so handlers can
// map them to stable HTTP responses with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for credential failures (wrong password,
	// missing rights).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks rights for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed or missing input, before any
	// store access.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts, most importantly an
	// email that is already registered.
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidOrExpired covers verification codes and reset tokens that
	// are wrong, consumed, or past their TTL. Callers are never told which.
	ErrInvalidOrExpired = errors.New("invalid or expired")

	// ErrDeliveryFailure is returned when the outbound email collaborator
	// fails. The initiating operation fails wholesale.
	ErrDeliveryFailure = errors.New("email delivery failed")
)
