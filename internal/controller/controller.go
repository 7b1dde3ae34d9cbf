package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/service"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

type Controller struct {
	zapLogger          *zap.SugaredLogger
	authService        *service.AuthService
	applicationService *service.ApplicationService
	menuService        *service.MenuService
	apiKeyService      *service.APIKeyService
	treasuryService    *service.TreasuryService
	magasinService     *service.MagasinService
	storage            storage.Storage
	cookieConfig       *util.CookieConfig
}

type Services struct {
	Auth        *service.AuthService
	Application *service.ApplicationService
	Menu        *service.MenuService
	APIKey      *service.APIKeyService
	Treasury    *service.TreasuryService
	Magasin     *service.MagasinService
}

func NewController(logger *zap.SugaredLogger, s Services, st storage.Storage, cookieConfig *util.CookieConfig) *Controller {
	return &Controller{
		zapLogger:          logger,
		authService:        s.Auth,
		applicationService: s.Application,
		menuService:        s.Menu,
		apiKeyService:      s.APIKey,
		treasuryService:    s.Treasury,
		magasinService:     s.Magasin,
		storage:            st,
		cookieConfig:       cookieConfig,
	}
}

// (GET /health).
func (c *Controller) Health(ctx echo.Context) error {
	if err := c.storage.Ping(ctx.Request().Context()); err != nil {
		c.zapLogger.Warnw("Health check failed", "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, Response{Success: false, Message: "Stockage indisponible"})
	}
	return OK(ctx, "ok")
}

func principal(ctx echo.Context) models.Principal {
	p, _ := ctx.Get(models.MwPrincipalKey).(models.Principal)
	return p
}

func tenant(ctx echo.Context) models.Tenant {
	t, _ := ctx.Get(models.MwTenantKey).(models.Tenant)
	return t
}

// apiKeyActor names the caller of an API-key protected route in audit columns.
func apiKeyActor(ctx echo.Context) string {
	key, ok := ctx.Get(models.MwAPIKeyKey).(*models.APIKey)
	if !ok {
		return ""
	}
	return "apikey:" + key.KeyPrefix
}
