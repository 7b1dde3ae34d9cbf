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

type ApplicationService struct {
	storage   storage.Storage
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewApplicationService(storage storage.Storage, validator *Validator, log *zap.SugaredLogger) *ApplicationService {
	return &ApplicationService{storage: storage, validator: validator, log: log, now: time.Now}
}

func (s *ApplicationService) Create(ctx context.Context, actor string, req models.CreateApplicationRequest) (*models.Application, error) {
	req.Reference = strings.TrimSpace(req.Reference)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:          uuid.New(),
		Reference:   req.Reference,
		Name:        req.Name,
		Description: req.Description,
		IsActif:     true,
		Audit:       models.NewAudit(actor, s.now()),
	}

	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		_, err := r.Applications().GetByReference(ctx, req.Reference)
		if err == nil {
			return util.BadRequest("Une application avec la même référence existe déjà")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return r.Applications().Add(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Application created", "reference", app.Reference, "by", actor)
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context) ([]models.Application, error) {
	apps, err := s.storage.Applications().Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}
