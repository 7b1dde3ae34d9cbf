package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/secrets"
	"github.com/rryowa/backoffice/internal/storage/memory"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	testEmail    = "admin@x.com"
	testPassword = "secret123"
	testActor    = "admin@x.com"
)

var testTenant = models.Tenant{ApplicationID: "app-1", BoutiqueID: "boutique-1"}

func testTokenConfig() *util.TokenConfig {
	return &util.TokenConfig{
		JwtSecretKey:  []byte("test-secret"),
		Issuer:        "backoffice",
		Audience:      "backoffice-admin",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		RememberMeTTL: 30 * 24 * time.Hour,
	}
}

type testEnv struct {
	storage  *memory.Storage
	denyList *memory.TokenStorage
	tokens   *TokenService
	auth     *AuthService
	log      *zap.SugaredLogger
	valid    *Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zap.NewNop().Sugar()
	st := memory.NewStorage()
	denyList := memory.NewTokenStorage()
	tokens := NewTokenService(testTokenConfig(), denyList)
	valid := NewValidator()
	provider := secrets.NewStaticProvider(map[string]string{
		secrets.KeyEmailAdmin:    testEmail,
		secrets.KeyPasswordAdmin: testPassword,
	})

	return &testEnv{
		storage:  st,
		denyList: denyList,
		tokens:   tokens,
		auth:     NewAuthService(st, provider, tokens, valid, log),
		log:      log,
		valid:    valid,
	}
}

func activeTokens(t *testing.T, env *testEnv, userID string) []models.RefreshToken {
	t.Helper()
	all, err := env.storage.RefreshTokens().FindByUser(context.Background(), userID)
	require.NoError(t, err)

	var active []models.RefreshToken
	for _, tok := range all {
		if tok.IsActive(time.Now()) {
			active = append(active, tok)
		}
	}
	return active
}

func requireKind(t *testing.T, err error, kind util.ErrorKind) *util.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := util.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	return appErr
}
