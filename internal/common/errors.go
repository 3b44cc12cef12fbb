// Package common defines shared constants and sentinel errors used across
// client and server layers of Silent Voice. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")
	ErrRateLimited    = errors.New("too many requests")

	// OTP errors.
	ErrOtpLocked = errors.New("otp challenge locked")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Notification channel errors. Never propagated to API callers.
	ErrDelivery = errors.New("delivery failure")

	// Export bundle errors. ErrDecryption deliberately does not tell a wrong
	// passphrase from a corrupted file.
	ErrDecryption   = errors.New("decryption failed")
	ErrBundleFormat = errors.New("invalid bundle format")
)
