// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidLoginPassword = errors.New("invalid login/password")
	ErrIdentityMismatch     = errors.New("identity does not match current session")
	ErrUnknownCollection    = errors.New("unknown collection")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Remote adapter errors.
	ErrNotConnected = errors.New("not connected")
	ErrTimeout      = errors.New("request timed out")
	ErrClosed       = errors.New("connection closed")
)
