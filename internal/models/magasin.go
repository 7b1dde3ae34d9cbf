package models

import (
	"time"

	"github.com/google/uuid"
)

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type Article struct {
	ID        uuid.UUID `json:"id"`
	Tenant    Tenant    `json:"-"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Audit
}

type CreateArticleRequest struct {
	Reference string `json:"reference" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=128"`
	Unit      string `json:"unit" validate:"required,max=16"`
}

// StockMovement quantities are positive for in/out; adjustments carry their sign.
type StockMovement struct {
	ID         uuid.UUID    `json:"id"`
	Tenant     Tenant       `json:"-"`
	ArticleID  uuid.UUID    `json:"articleId"`
	Type       MovementType `json:"type"`
	Quantity   int64        `json:"quantity"`
	Reason     string       `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
	Audit
}

func (m StockMovement) Delta() int64 {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

type CreateStockMovementRequest struct {
	ArticleID  uuid.UUID    `json:"articleId" validate:"required"`
	Type       MovementType `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity   int64        `json:"quantity" validate:"required"`
	Reason     string       `json:"reason" validate:"max=256"`
	OccurredAt *time.Time   `json:"occurredAt,omitempty"`
}

type StockLevel struct {
	ArticleID uuid.UUID `json:"articleId"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  int64     `json:"quantity"`
}
