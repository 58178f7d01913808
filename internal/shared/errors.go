package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired indicates a refresh token that is unknown or expired.
	ErrSessionExpired = errors.New("session expired")
)
