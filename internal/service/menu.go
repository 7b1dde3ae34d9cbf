package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

type MenuService struct {
	storage   storage.Storage
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewMenuService(storage storage.Storage, validator *Validator, log *zap.SugaredLogger) *MenuService {
	return &MenuService{storage: storage, validator: validator, log: log, now: time.Now}
}

func (s *MenuService) List(ctx context.Context, appReference string) ([]models.Menu, error) {
	app, err := getApplication(ctx, s.storage, appReference)
	if err != nil {
		return nil, err
	}

	menus, err := s.storage.Menus().FindByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return menus, nil
}

func (s *MenuService) Create(ctx context.Context, actor, appReference string, req models.CreateMenuRequest) (*models.Menu, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var menu *models.Menu
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		app, err := getApplication(ctx, r, appReference)
		if err != nil {
			return err
		}

		_, err = r.Menus().GetByReference(ctx, app.ID, req.Reference)
		if err == nil {
			return util.BadRequest("Un menu avec la même référence existe déjà")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := checkParent(ctx, r, app.ID, req.Reference, req.ParentReference); err != nil {
			return err
		}

		menu = &models.Menu{
			ID:              uuid.New(),
			ApplicationID:   app.ID,
			Reference:       req.Reference,
			Label:           req.Label,
			Route:           req.Route,
			Icon:            req.Icon,
			Position:        req.Position,
			ParentReference: req.ParentReference,
			IsActif:         true,
			Audit:           models.NewAudit(actor, s.now()),
		}
		return r.Menus().Add(ctx, menu)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Menu created", "application", appReference, "reference", menu.Reference, "by", actor)
	return menu, nil
}

func (s *MenuService) Update(ctx context.Context, actor, appReference string, req models.UpdateMenuRequest) (*models.Menu, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var menu *models.Menu
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		var err error
		menu, err = getMenu(ctx, r, appReference, req.Reference)
		if err != nil {
			return err
		}
		if err := checkParent(ctx, r, menu.ApplicationID, menu.Reference, req.ParentReference); err != nil {
			return err
		}

		menu.Label = req.Label
		menu.Route = req.Route
		menu.Icon = req.Icon
		menu.Position = req.Position
		menu.ParentReference = req.ParentReference
		menu.Touch(actor, s.now())
		return r.Menus().Update(ctx, menu)
	})
	if err != nil {
		return nil, conflictOnStale(err)
	}
	return menu, nil
}

// SetActive is a no-op when the menu is already in the requested state.
func (s *MenuService) SetActive(ctx context.Context, actor string, req models.ToggleMenuRequest, active bool) (*models.Menu, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var menu *models.Menu
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		var err error
		menu, err = getMenu(ctx, r, req.AppAdminReference, req.Reference)
		if err != nil {
			return err
		}
		if menu.IsActif == active {
			return nil
		}

		menu.IsActif = active
		menu.Touch(actor, s.now())
		return r.Menus().Update(ctx, menu)
	})
	if err != nil {
		return nil, conflictOnStale(err)
	}

	s.log.Infow("Menu state set", "application", req.AppAdminReference, "reference", req.Reference, "active", active)
	return menu, nil
}

func getApplication(ctx context.Context, r storage.Repositories, reference string) (*models.Application, error) {
	app, err := r.Applications().GetByReference(ctx, reference)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, util.NotFound("Application %s introuvable", reference)
	} else if err != nil {
		return nil, err
	}
	return app, nil
}

func getMenu(ctx context.Context, r storage.Repositories, appReference, reference string) (*models.Menu, error) {
	app, err := getApplication(ctx, r, appReference)
	if err != nil {
		return nil, err
	}

	menu, err := r.Menus().GetByReference(ctx, app.ID, reference)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, util.NotFound("Menu %s introuvable", reference)
	} else if err != nil {
		return nil, err
	}
	return menu, nil
}

// checkParent accepts an empty parent or another menu of the same application.
func checkParent(ctx context.Context, r storage.Repositories, applicationID uuid.UUID, reference, parent string) error {
	if parent == "" {
		return nil
	}
	if parent == reference {
		return util.Validation(map[string]string{"parentReference": "un menu ne peut pas être son propre parent"})
	}

	_, err := r.Menus().GetByReference(ctx, applicationID, parent)
	if errors.Is(err, storage.ErrNotFound) {
		return util.NotFound("Menu parent %s introuvable", parent)
	}
	return err
}

func conflictOnStale(err error) error {
	if errors.Is(err, storage.ErrStaleRecord) {
		return util.NewAppError(util.KindConflict, "La ressource a été modifiée entre-temps, veuillez réessayer")
	}
	return err
}
