// Package common defines shared constants and sentinel errors used across
// the console's layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors, raised before any network call.
	ErrFieldRequired    = errors.New("required field is missing")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// Transport / remote errors.
	ErrUnavailable = errors.New("server unavailable")
	ErrNotFound    = errors.New("not found")

	// Auth errors (rejected or expired credential).
	ErrUnauthorized = errors.New("unauthorized")
)
