package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/rryowa/backoffice/internal/storage"
)

const uniqueViolation = "23505"

type repositories struct {
	refreshTokens      *RefreshTokenRepository
	apiKeys            *APIKeyRepository
	applications       *ApplicationRepository
	menus              *MenuRepository
	categories         *CategoryRepository
	paymentMethods     *PaymentMethodRepository
	cashFlows          *CashFlowRepository
	recurringCashFlows *RecurringCashFlowRepository
	articles           *ArticleRepository
	stockMovements     *StockMovementRepository
}

func newRepositories(db storage.DBTX) *repositories {
	return &repositories{
		refreshTokens:      NewRefreshTokenRepository(db),
		apiKeys:            NewAPIKeyRepository(db),
		applications:       NewApplicationRepository(db),
		menus:              NewMenuRepository(db),
		categories:         NewCategoryRepository(db),
		paymentMethods:     NewPaymentMethodRepository(db),
		cashFlows:          NewCashFlowRepository(db),
		recurringCashFlows: NewRecurringCashFlowRepository(db),
		articles:           NewArticleRepository(db),
		stockMovements:     NewStockMovementRepository(db),
	}
}

func (r *repositories) RefreshTokens() storage.RefreshTokenRepository { return r.refreshTokens }
func (r *repositories) APIKeys() storage.APIKeyRepository             { return r.apiKeys }
func (r *repositories) Applications() storage.ApplicationRepository   { return r.applications }
func (r *repositories) Menus() storage.MenuRepository                 { return r.menus }
func (r *repositories) Categories() storage.CategoryRepository        { return r.categories }
func (r *repositories) PaymentMethods() storage.PaymentMethodRepository {
	return r.paymentMethods
}
func (r *repositories) CashFlows() storage.CashFlowRepository { return r.cashFlows }
func (r *repositories) RecurringCashFlows() storage.RecurringCashFlowRepository {
	return r.recurringCashFlows
}
func (r *repositories) Articles() storage.ArticleRepository { return r.articles }
func (r *repositories) StockMovements() storage.StockMovementRepository {
	return r.stockMovements
}

// Storage reads through the pool and writes through Do.
type Storage struct {
	db *sql.DB
	*repositories
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:           db,
		repositories: newRepositories(db),
	}
}

// Do runs fn in a transaction bound to fresh repositories.
// Commits when fn returns nil, rolls back on error or panic.
func (s *Storage) Do(ctx context.Context, fn func(r storage.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("commit transaction: %w", mapError(commitErr))
		}
	}()

	err = fn(newRepositories(tx))
	return
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError turns driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrConflict, pqErr.Constraint)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrStaleRecord
	}
	return nil
}
