package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the identity carried by access and refresh tokens.
type Principal struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// RefreshToken is one issued refresh token. Only the hash of the raw value is kept.
type RefreshToken struct {
	ID            uuid.UUID  `json:"id"`
	TokenHash     string     `json:"-"`
	Email         string     `json:"email"`
	UserID        string     `json:"userId"`
	Role          string     `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	IsRevoked     bool       `json:"isRevoked"`
	RevokedReason string     `json:"revokedReason,omitempty"`
}

// IsActive reports whether the token is not revoked and unexpired at now.
// A token without expiry never expires.
func (t RefreshToken) IsActive(now time.Time) bool {
	if t.IsRevoked {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

func (t RefreshToken) Principal() Principal {
	return Principal{Email: t.Email, UserID: t.UserID, Role: t.Role}
}

// TokenPair is what the issuer hands back: the raw refresh token goes to the
// cookie, its hash to storage.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTokenHash string
	RefreshExpiresAt time.Time
}

type SignInRequest struct {
	Email      string `json:"email" validate:"required,max=320"`
	Password   string `json:"password" validate:"required,max=256"`
	RememberMe bool   `json:"rememberMe"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// SignInResult carries the access token for the body and the refresh token for the cookie.
type SignInResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}
