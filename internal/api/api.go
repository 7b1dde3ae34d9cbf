package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	middleware "github.com/oapi-codegen/echo-middleware"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/controller"
	"github.com/rryowa/backoffice/internal/service"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
)

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	tokenService    *service.TokenService
	apiKeyService   *service.APIKeyService
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
}

func NewAPI(
	c *controller.Controller,
	tokenService *service.TokenService,
	apiKeyService *service.APIKeyService,
	l *zap.SugaredLogger,
	sc *util.ServerConfig,
) *API {
	e := echo.New()
	e.HideBanner = true

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)

	return &API{
		server:          e,
		controller:      c,
		tokenService:    tokenService,
		apiKeyService:   apiKeyService,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
	}
}

// Setup installs middlewares and routes. Run calls it; tests may call it directly.
func (a *API) Setup() error {
	swagger, err := controller.GetSwagger()
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI specification: %w", err)
	}
	swagger.Servers = nil

	a.server.Use(echomiddleware.Recover())
	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a)))

	RegisterHandlers(a.server, a.controller, Middlewares{
		Bearer:   BearerAuthMiddleware(a.tokenService),
		APIKey:   APIKeyAuthMiddleware(a.apiKeyService),
		Tenant:   TenantMiddleware(),
		Validate: middleware.OapiRequestValidator(swagger),
	})
	return nil
}

func (a *API) Handler() http.Handler {
	return a.server
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Setup(); err != nil {
		a.log.Fatalf("%v", err)
	}

	a.ListenGracefulShutdown(ctx)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	timeout := shutdownTimeout
	if a.gracefulTimeout > 0 {
		timeout = a.gracefulTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("shutdown: %v", err)
		return
	}
	a.log.Info("server shutdown completed")
}
