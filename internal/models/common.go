package models

import (
	"strings"
	"time"

	"github.com/rryowa/backoffice/internal/util"
)

//nolint:gosec //file not handles sensitive data
const (
	MwAPIKeyHeader        = "X-API-Key"
	MwApplicationIDHeader = "X-Application-Id"
	MwBoutiqueIDHeader    = "X-Boutique-Id"

	MwPrincipalKey = "principal"
	MwAPIKeyKey    = "apiKey"
	MwTenantKey    = "tenant"
	MwTokenKey     = "token"

	RefreshTokenCookie = "refreshToken"

	RoleAdmin = "admin"
)

// Audit maps onto the ch1..ch5 columns shared by every business table.
type Audit struct {
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	Version   int64     `json:"-"`
}

func NewAudit(by string, now time.Time) Audit {
	return Audit{
		CreatedAt: now,
		CreatedBy: by,
		UpdatedAt: now,
		UpdatedBy: by,
		Version:   1,
	}
}

func (a *Audit) Touch(by string, now time.Time) {
	a.UpdatedAt = now
	a.UpdatedBy = by
	a.Version++
}

// Tenant scopes treasury and magasin data.
type Tenant struct {
	ApplicationID string `json:"applicationId"`
	BoutiqueID    string `json:"boutiqueId"`
}

func NewTenant(applicationID, boutiqueID string) (Tenant, error) {
	applicationID = strings.TrimSpace(applicationID)
	boutiqueID = strings.TrimSpace(boutiqueID)
	if applicationID == "" {
		return Tenant{}, util.Domain("L'en-tête %s est obligatoire", MwApplicationIDHeader)
	}
	if boutiqueID == "" {
		return Tenant{}, util.Domain("L'en-tête %s est obligatoire", MwBoutiqueIDHeader)
	}
	return Tenant{ApplicationID: applicationID, BoutiqueID: boutiqueID}, nil
}

func (t Tenant) String() string {
	return t.ApplicationID + "/" + t.BoutiqueID
}
