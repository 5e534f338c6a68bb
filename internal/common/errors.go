// Package common defines shared sentinel errors used across service and
// transport layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Auth errors. ErrorUnauthorized covers both unknown login and wrong
	// password so callers cannot enumerate accounts.
	ErrorUnauthorized = errors.New("invalid login or password")

	// Admin operation errors.
	ErrorAccessDenied  = errors.New("access denied")
	ErrorSelfDelete    = errors.New("cannot delete own account")
	ErrorTargetIsAdmin = errors.New("cannot delete an administrator")
)
