package service

import "errors"

// Flow specific errors used by handlers for stable error_type mapping.
var (
	ErrPasswordMismatch = errors.New("password_mismatch")
	ErrWrongPassword    = errors.New("wrong_password")
	ErrEmailRegistered  = errors.New("email_already_registered")
	ErrOAuthStateReused = errors.New("oauth_state_reused")
	ErrProviderDenied   = errors.New("provider_denied")
)
