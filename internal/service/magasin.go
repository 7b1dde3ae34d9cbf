package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

type MagasinService struct {
	storage   storage.Storage
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewMagasinService(storage storage.Storage, validator *Validator, log *zap.SugaredLogger) *MagasinService {
	return &MagasinService{storage: storage, validator: validator, log: log, now: time.Now}
}

func (s *MagasinService) CreateArticle(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreateArticleRequest,
) (*models.Article, error) {
	req.Reference = strings.TrimSpace(req.Reference)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	article := &models.Article{
		ID:        uuid.New(),
		Tenant:    tenant,
		Reference: req.Reference,
		Name:      req.Name,
		Unit:      req.Unit,
		Audit:     models.NewAudit(actor, s.now()),
	}

	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		_, err := r.Articles().GetByReference(ctx, tenant, req.Reference)
		if err == nil {
			return util.BadRequest("Un article avec la même référence existe déjà")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return r.Articles().Add(ctx, article)
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (s *MagasinService) ListArticles(ctx context.Context, tenant models.Tenant) ([]models.Article, error) {
	articles, err := s.storage.Articles().Find(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// RecordMovement refuses an outgoing movement larger than the stock on hand.
// Movements of one article are serialised on the article row.
func (s *MagasinService) RecordMovement(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreateStockMovementRequest,
) (*models.StockMovement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Type != models.MovementAdjustment && req.Quantity <= 0 {
		return nil, util.Validation(map[string]string{"quantity": "quantity doit être supérieur à 0"})
	}

	now := s.now()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	var movement *models.StockMovement
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		article, err := r.Articles().GetForUpdate(ctx, tenant, req.ArticleID)
		if errors.Is(err, storage.ErrNotFound) {
			return util.NotFound("Article %s introuvable", req.ArticleID)
		} else if err != nil {
			return err
		}

		movement = &models.StockMovement{
			ID:         uuid.New(),
			Tenant:     tenant,
			ArticleID:  article.ID,
			Type:       req.Type,
			Quantity:   req.Quantity,
			Reason:     req.Reason,
			OccurredAt: occurredAt,
			Audit:      models.NewAudit(actor, now),
		}

		if movement.Delta() < 0 {
			onHand, err := r.StockMovements().Quantity(ctx, tenant, article.ID)
			if err != nil {
				return err
			}
			if onHand+movement.Delta() < 0 {
				return util.BadRequest("Stock insuffisant pour l'article %s: %d disponible(s)", article.Reference, onHand)
			}
		}
		return r.StockMovements().Add(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Stock movement recorded",
		"tenant", tenant.String(),
		"articleID", movement.ArticleID,
		"type", movement.Type,
		"quantity", movement.Quantity,
	)
	return movement, nil
}

func (s *MagasinService) ListMovements(ctx context.Context, tenant models.Tenant, articleID *uuid.UUID) ([]models.StockMovement, error) {
	movements, err := s.storage.StockMovements().Find(ctx, tenant, articleID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}

func (s *MagasinService) StockLevels(ctx context.Context, tenant models.Tenant) ([]models.StockLevel, error) {
	articles, err := s.ListArticles(ctx, tenant)
	if err != nil {
		return nil, err
	}

	levels := make([]models.StockLevel, 0, len(articles))
	for _, a := range articles {
		qty, err := s.storage.StockMovements().Quantity(ctx, tenant, a.ID)
		if err != nil {
			return nil, fmt.Errorf("stock of %s: %w", a.Reference, err)
		}
		levels = append(levels, models.StockLevel{
			ArticleID: a.ID,
			Reference: a.Reference,
			Name:      a.Name,
			Unit:      a.Unit,
			Quantity:  qty,
		})
	}
	return levels, nil
}
