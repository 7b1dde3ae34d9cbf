package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

const (
	articleColumns  = `id, cf1, cf2, cf3, cf4, cf5, ` + auditColumns
	movementColumns = `id, cf1, cf2, cf3, cf4, cf5, cf6, cf7, ` + auditColumns
)

type ArticleRepository struct {
	db storage.DBTX
}

func NewArticleRepository(db storage.DBTX) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) Add(ctx context.Context, a *models.Article) error {
	query := `INSERT INTO articles (` + articleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Tenant.ApplicationID, a.Tenant.BoutiqueID, a.Reference, a.Name, a.Unit,
		a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy, a.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", mapError(err))
	}
	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE cf1 = $1 AND cf2 = $2 AND id = $3`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, id))
	if err != nil {
		return nil, fmt.Errorf("get article: %w", mapError(err))
	}
	return a, nil
}

func (r *ArticleRepository) GetForUpdate(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE cf1 = $1 AND cf2 = $2 AND id = $3 FOR UPDATE`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, id))
	if err != nil {
		return nil, fmt.Errorf("lock article: %w", mapError(err))
	}
	return a, nil
}

func (r *ArticleRepository) GetByReference(ctx context.Context, tenant models.Tenant, reference string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE cf1 = $1 AND cf2 = $2 AND cf3 = $3`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, reference))
	if err != nil {
		return nil, fmt.Errorf("get article by reference: %w", mapError(err))
	}
	return a, nil
}

func (r *ArticleRepository) Find(ctx context.Context, tenant models.Tenant) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE cf1 = $1 AND cf2 = $2 ORDER BY cf3`
	rows, err := r.db.QueryContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID)
	if err != nil {
		return nil, fmt.Errorf("find articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticle(row scanner) (*models.Article, error) {
	var a models.Article
	err := row.Scan(
		&a.ID, &a.Tenant.ApplicationID, &a.Tenant.BoutiqueID, &a.Reference, &a.Name, &a.Unit,
		&a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &a.UpdatedBy, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type StockMovementRepository struct {
	db storage.DBTX
}

func NewStockMovementRepository(db storage.DBTX) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

func (r *StockMovementRepository) Add(ctx context.Context, m *models.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Tenant.ApplicationID, m.Tenant.BoutiqueID, m.ArticleID, m.Type, m.Quantity, m.Reason, m.OccurredAt,
		m.CreatedAt, m.CreatedBy, m.UpdatedAt, m.UpdatedBy, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", mapError(err))
	}
	return nil
}

func (r *StockMovementRepository) Find(ctx context.Context, tenant models.Tenant, articleID *uuid.UUID) ([]models.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE cf1 = $1 AND cf2 = $2`
	args := []any{tenant.ApplicationID, tenant.BoutiqueID}
	if articleID != nil {
		query += ` AND cf3 = $3`
		args = append(args, *articleID)
	}
	query += ` ORDER BY cf7`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find stock movements: %w", err)
	}
	defer rows.Close()

	var movements []models.StockMovement
	for rows.Next() {
		var m models.StockMovement
		err := rows.Scan(
			&m.ID, &m.Tenant.ApplicationID, &m.Tenant.BoutiqueID, &m.ArticleID, &m.Type, &m.Quantity, &m.Reason, &m.OccurredAt,
			&m.CreatedAt, &m.CreatedBy, &m.UpdatedAt, &m.UpdatedBy, &m.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *StockMovementRepository) Quantity(ctx context.Context, tenant models.Tenant, articleID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN cf4 = 'out' THEN -cf5 ELSE cf5 END), 0)
		FROM stock_movements WHERE cf1 = $1 AND cf2 = $2 AND cf3 = $3`
	var qty int64
	if err := r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, articleID).Scan(&qty); err != nil {
		return 0, fmt.Errorf("stock quantity: %w", err)
	}
	return qty, nil
}
