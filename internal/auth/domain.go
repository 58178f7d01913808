// Package auth issues and verifies employee tokens. Access tokens are HS256
// JWTs; refresh tokens are opaque ids held in redis and rotated on use.
package auth

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", httpx.ErrUnauthorized)
	ErrInactiveEmployee   = fmt.Errorf("%w: employee is inactive", httpx.ErrUnauthorized)
)
