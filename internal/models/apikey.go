package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey authenticates service-to-service calls. The raw key is never stored;
// KeyPrefix keeps the first characters for identification.
type APIKey struct {
	ID              uuid.UUID  `json:"id"`
	KeyHash         string     `json:"-"`
	KeyPrefix       string     `json:"keyPrefix"`
	ApplicationID   uuid.UUID  `json:"applicationId"`
	ApplicationName string     `json:"applicationName"`
	Scopes          []string   `json:"scopes"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	IsRevoked       bool       `json:"isRevoked"`
	RevokedAt       *time.Time `json:"revokedAt,omitempty"`
	RevokedReason   string     `json:"revokedReason,omitempty"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
	RotatedFromID   *uuid.UUID `json:"rotatedFromId,omitempty"`
}

func (k APIKey) IsValid(now time.Time) bool {
	if k.IsRevoked {
		return false
	}
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}

func (k APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

type IssueAPIKeyRequest struct {
	ApplicationID uuid.UUID `json:"applicationId" validate:"required"`
	Scopes        []string  `json:"scopes" validate:"required,min=1,dive,required,max=64"`
	ExpiresInDays *int      `json:"expiresInDays,omitempty" validate:"omitempty,min=1,max=3650"`
}

type RotateAPIKeyRequest struct {
	GracePeriodDays int `json:"gracePeriodDays" validate:"min=0,max=90"`
}

type RevokeAPIKeyRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

// IssuedAPIKey is returned once, at issuance or rotation; Key is the raw secret.
type IssuedAPIKey struct {
	Key    string `json:"key"`
	APIKey APIKey `json:"apiKey"`
}

type APIKeyRotatedEvent struct {
	Event         string     `json:"event"`
	ApplicationID uuid.UUID  `json:"applicationId"`
	OldKeyID      uuid.UUID  `json:"oldKeyId"`
	NewKeyID      uuid.UUID  `json:"newKeyId"`
	OldKeyValidTo *time.Time `json:"oldKeyValidTo,omitempty"`
}
