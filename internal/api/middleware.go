package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/controller"
	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/service"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	ScopeTreasury = "treasury"
	ScopeMagasin  = "magasin"

	msgBearerMissing = "Jeton d'accès manquant"
	msgBearerInvalid = "Jeton d'accès invalide ou expiré"
	msgBearerRevoked = "Jeton d'accès révoqué"
	msgAdminOnly     = "Accès réservé aux administrateurs"
	msgScopeMissing  = "La clé d'API ne couvre pas cette ressource"
)

var ErrBearerMissing = errors.New("bearer token is missing")

// BearerAuthMiddleware accepts admin access tokens only and stores the
// principal and raw token in the echo context.
func BearerAuthMiddleware(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := controller.BearerToken(c.Request())
			if token == "" {
				return util.Unauthorized(ErrBearerMissing, msgBearerMissing)
			}

			claims, err := tokens.ValidateAccessToken(c.Request().Context(), token)
			switch {
			case errors.Is(err, service.ErrTokenRevoked):
				return util.Unauthorized(err, msgBearerRevoked)
			case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrTokenInvalid):
				return util.Unauthorized(err, msgBearerInvalid)
			case err != nil:
				return err
			}

			if claims.Principal.Role != models.RoleAdmin {
				return util.NewAppError(util.KindForbidden, msgAdminOnly)
			}

			c.Set(models.MwPrincipalKey, claims.Principal)
			c.Set(models.MwTokenKey, token)
			return next(c)
		}
	}
}

// APIKeyAuthMiddleware checks the X-API-Key header and the scope required by
// the requested path. The key is stored in the echo context.
func APIKeyAuthMiddleware(keys *service.APIKeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, err := keys.Validate(c.Request().Context(), c.Request().Header.Get(models.MwAPIKeyHeader))
			if err != nil {
				return err
			}

			if !key.HasScope(scopeFor(c.Request().URL.Path)) {
				return util.NewAppError(util.KindForbidden, msgScopeMissing)
			}

			c.Set(models.MwAPIKeyKey, key)
			return next(c)
		}
	}
}

func scopeFor(path string) string {
	if strings.HasPrefix(path, "/api/magasin/") {
		return ScopeMagasin
	}
	return ScopeTreasury
}

// TenantMiddleware reads the application and boutique headers.
func TenantMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			tenant, err := models.NewTenant(h.Get(models.MwApplicationIDHeader), h.Get(models.MwBoutiqueIDHeader))
			if err != nil {
				return err
			}

			c.Set(models.MwTenantKey, tenant)
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if t, ok := c.Get(models.MwTenantKey).(models.Tenant); ok {
				fields = append(fields, "tenant", t.String())
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Warnw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
