package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/api"
	"github.com/rryowa/backoffice/internal/controller"
	"github.com/rryowa/backoffice/internal/migrations"
	"github.com/rryowa/backoffice/internal/secrets"
	"github.com/rryowa/backoffice/internal/service"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/storage/memory"
	"github.com/rryowa/backoffice/internal/storage/postgres"
	"github.com/rryowa/backoffice/internal/storage/redis"
	"github.com/rryowa/backoffice/internal/util"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()
	defer func() { _ = logger.Sync() }()

	var cleanupFuncs []func()
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}()

	provider, err := newSecretProvider(ctx, logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	// The signing key is resolved once; it never changes while the process runs.
	jwtSecret := util.GetJWTSecret()
	if jwtSecret == "" {
		jwtSecret, err = provider.Secret(ctx, secrets.KeyJwtSecret)
		if err != nil {
			logger.Fatalw("JWT signing key unavailable", "error", err)
		}
	}

	st, cleanup, err := newStorage(ctx, logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	cleanupFuncs = append(cleanupFuncs, cleanup)

	tokenStorage, cleanup, err := newTokenStorage(ctx, logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	cleanupFuncs = append(cleanupFuncs, cleanup)

	validator := service.NewValidator()
	tokenService := service.NewTokenService(util.NewTokenConfig(jwtSecret), tokenStorage)
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())
	cleanupFuncs = append(cleanupFuncs, webhookService.Wait)

	apiKeyService := service.NewAPIKeyService(st, webhookService, validator, logger)
	treasuryService := service.NewTreasuryService(st, validator, logger)

	jobCtx, stopJob := context.WithCancel(ctx)
	cleanupFuncs = append(cleanupFuncs, stopJob)
	if jobCfg := util.NewJobConfig(); jobCfg.Enabled {
		go service.NewRecurringJob(treasuryService, logger, jobCfg.RetryDelay).Run(jobCtx)
	}

	c := controller.NewController(logger, controller.Services{
		Auth:        service.NewAuthService(st, provider, tokenService, validator, logger),
		Application: service.NewApplicationService(st, validator, logger),
		Menu:        service.NewMenuService(st, validator, logger),
		APIKey:      apiKeyService,
		Treasury:    treasuryService,
		Magasin:     service.NewMagasinService(st, validator, logger),
	}, st, util.NewCookieConfig())

	apiServer := api.NewAPI(c, tokenService, apiKeyService, logger, util.NewServerConfig())
	apiServer.Run(ctx)
}

func newSecretProvider(ctx context.Context, logger *zap.SugaredLogger) (secrets.Provider, error) {
	cfg := util.NewVaultConfig()
	if !cfg.Enabled() {
		logger.Warn("VAULT_URI is not set, reading secrets from the environment")
		return secrets.NewStaticProvider(util.GetStaticSecrets()), nil
	}
	return secrets.NewVaultProvider(ctx, logger, cfg)
}

func newStorage(ctx context.Context, logger *zap.SugaredLogger) (storage.Storage, func(), error) {
	if util.GetStorageDriver() == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStorage(), func() {}, nil
	}

	dbCfg, err := util.NewDBConfig()
	if err != nil {
		return nil, nil, err
	}
	db, cleanup, err := util.NewDBConnection(ctx, logger, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}
	return postgres.NewStorage(db), cleanup, nil
}

func newTokenStorage(ctx context.Context, logger *zap.SugaredLogger) (storage.TokenStorage, func(), error) {
	redisCfg, err := util.NewRedisConfig()
	if errors.Is(err, util.ErrRedisAddrNotSet) {
		logger.Warn("REDIS_ADDR is not set, keeping the access token deny-list in memory")
		return memory.NewTokenStorage(), func() {}, nil
	} else if err != nil {
		return nil, nil, err
	}

	client, cleanup, err := util.NewRedisClient(ctx, logger, redisCfg)
	if err != nil {
		return nil, nil, err
	}
	return redis.NewTokenStorage(client), cleanup, nil
}
