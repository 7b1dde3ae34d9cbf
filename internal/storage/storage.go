package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrStaleRecord is returned by conditional updates that matched no row.
	ErrStaleRecord = errors.New("record was modified concurrently")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UnitOfWork runs fn inside one transaction: every write made through the
// given Repositories is committed when fn returns nil and discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}

type Repositories interface {
	RefreshTokens() RefreshTokenRepository
	APIKeys() APIKeyRepository
	Applications() ApplicationRepository
	Menus() MenuRepository
	Categories() CategoryRepository
	PaymentMethods() PaymentMethodRepository
	CashFlows() CashFlowRepository
	RecurringCashFlows() RecurringCashFlowRepository
	Articles() ArticleRepository
	StockMovements() StockMovementRepository
}

// Storage is the full persistence surface handed to services.
type Storage interface {
	Repositories
	UnitOfWork
	Ping(ctx context.Context) error
}

type RefreshTokenRepository interface {
	Add(ctx context.Context, token *models.RefreshToken) error
	// FindActiveByHash matches a non-revoked token whose expiry is unset or after now.
	FindActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)
	// Revoke flips a non-revoked token; ErrStaleRecord when it was already revoked.
	Revoke(ctx context.Context, id uuid.UUID, reason string) error
	// RevokeAllForUser revokes every non-revoked token of userID and returns how many.
	RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error)
	FindByUser(ctx context.Context, userID string) ([]models.RefreshToken, error)
}

type APIKeyRepository interface {
	Add(ctx context.Context, key *models.APIKey) error
	Update(ctx context.Context, keys ...*models.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	Find(ctx context.Context, applicationID *uuid.UUID) ([]models.APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ApplicationRepository interface {
	Add(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetByReference(ctx context.Context, reference string) (*models.Application, error)
	Find(ctx context.Context) ([]models.Application, error)
}

type MenuRepository interface {
	Add(ctx context.Context, menu *models.Menu) error
	Update(ctx context.Context, menus ...*models.Menu) error
	GetByReference(ctx context.Context, applicationID uuid.UUID, reference string) (*models.Menu, error)
	FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Menu, error)
}

type CategoryRepository interface {
	Add(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Category, error)
	GetByName(ctx context.Context, tenant models.Tenant, name string) (*models.Category, error)
	Find(ctx context.Context, tenant models.Tenant, flowType *models.FlowType) ([]models.Category, error)
}

type PaymentMethodRepository interface {
	Add(ctx context.Context, method *models.PaymentMethod) error
	GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.PaymentMethod, error)
	GetByName(ctx context.Context, tenant models.Tenant, name string) (*models.PaymentMethod, error)
	Find(ctx context.Context, tenant models.Tenant) ([]models.PaymentMethod, error)
}

type CashFlowRepository interface {
	Add(ctx context.Context, flow *models.CashFlow) error
	Find(ctx context.Context, tenant models.Tenant, filter models.CashFlowFilter) ([]models.CashFlow, error)
}

type RecurringCashFlowRepository interface {
	Add(ctx context.Context, flow *models.RecurringCashFlow) error
	Update(ctx context.Context, flows ...*models.RecurringCashFlow) error
	Find(ctx context.Context, tenant models.Tenant) ([]models.RecurringCashFlow, error)
	// FindDue returns active flows of every tenant whose next occurrence is at or before now.
	FindDue(ctx context.Context, now time.Time) ([]models.RecurringCashFlow, error)
}

type ArticleRepository interface {
	Add(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error)
	// GetForUpdate is GetByID holding the article row lock until the unit of work ends.
	GetForUpdate(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error)
	GetByReference(ctx context.Context, tenant models.Tenant, reference string) (*models.Article, error)
	Find(ctx context.Context, tenant models.Tenant) ([]models.Article, error)
}

type StockMovementRepository interface {
	Add(ctx context.Context, movement *models.StockMovement) error
	Find(ctx context.Context, tenant models.Tenant, articleID *uuid.UUID) ([]models.StockMovement, error)
	// Quantity sums the signed movements of one article.
	Quantity(ctx context.Context, tenant models.Tenant, articleID uuid.UUID) (int64, error)
}

// TokenStorage deny-lists access tokens until they expire.
type TokenStorage interface {
	InvalidateToken(ctx context.Context, jti string, expiration time.Duration) error
	IsTokenInvalidated(ctx context.Context, jti string) (bool, error)
}
