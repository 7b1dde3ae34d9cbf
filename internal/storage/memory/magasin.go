package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

type articleRepo struct{ *repositories }

func (r articleRepo) Add(_ context.Context, a *models.Article) error {
	defer r.lock()()
	for _, existing := range r.s.st.articles {
		if existing.Tenant == a.Tenant && existing.Reference == a.Reference {
			return fmt.Errorf("%w: article %s", storage.ErrConflict, a.Reference)
		}
	}
	r.s.st.articles[a.ID] = *a
	return nil
}

func (r articleRepo) GetByID(_ context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error) {
	defer r.lock()()
	a, ok := r.s.st.articles[id]
	if !ok || a.Tenant != tenant {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

// GetForUpdate relies on Do holding the store lock for the whole unit of work.
func (r articleRepo) GetForUpdate(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Article, error) {
	return r.GetByID(ctx, tenant, id)
}

func (r articleRepo) GetByReference(_ context.Context, tenant models.Tenant, reference string) (*models.Article, error) {
	defer r.lock()()
	for _, a := range r.s.st.articles {
		if a.Tenant == tenant && a.Reference == reference {
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r articleRepo) Find(_ context.Context, tenant models.Tenant) ([]models.Article, error) {
	defer r.lock()()
	var articles []models.Article
	for _, a := range r.s.st.articles {
		if a.Tenant == tenant {
			articles = append(articles, a)
		}
	}
	slices.SortFunc(articles, func(a, b models.Article) int { return strings.Compare(a.Reference, b.Reference) })
	return articles, nil
}

type stockMovementRepo struct{ *repositories }

func (r stockMovementRepo) Add(_ context.Context, m *models.StockMovement) error {
	defer r.lock()()
	r.s.st.stockMovements[m.ID] = *m
	return nil
}

func (r stockMovementRepo) Find(_ context.Context, tenant models.Tenant, articleID *uuid.UUID) ([]models.StockMovement, error) {
	defer r.lock()()
	var movements []models.StockMovement
	for _, m := range r.s.st.stockMovements {
		if m.Tenant != tenant || (articleID != nil && m.ArticleID != *articleID) {
			continue
		}
		movements = append(movements, m)
	}
	slices.SortFunc(movements, func(a, b models.StockMovement) int { return a.OccurredAt.Compare(b.OccurredAt) })
	return movements, nil
}

func (r stockMovementRepo) Quantity(_ context.Context, tenant models.Tenant, articleID uuid.UUID) (int64, error) {
	defer r.lock()()
	var qty int64
	for _, m := range r.s.st.stockMovements {
		if m.Tenant == tenant && m.ArticleID == articleID {
			qty += m.Delta()
		}
	}
	return qty, nil
}
