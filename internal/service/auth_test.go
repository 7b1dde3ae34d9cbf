package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/secrets"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

type failingProvider struct{ err error }

func (p failingProvider) Secret(context.Context, string) (string, error) { return "", p.err }

// failingAddStorage lets revokes through and fails every refresh token insert.
type failingAddStorage struct{ storage.Storage }

func (s failingAddStorage) Do(ctx context.Context, fn func(r storage.Repositories) error) error {
	return s.Storage.Do(ctx, func(r storage.Repositories) error {
		return fn(failingAddRepos{r})
	})
}

type failingAddRepos struct{ storage.Repositories }

func (r failingAddRepos) RefreshTokens() storage.RefreshTokenRepository {
	return failingAddTokens{r.Repositories.RefreshTokens()}
}

type failingAddTokens struct{ storage.RefreshTokenRepository }

func (failingAddTokens) Add(context.Context, *models.RefreshToken) error {
	return errors.New("disk full")
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("matching credentials", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)

		active := activeTokens(t, env, testEmail)
		require.Len(t, active, 1)
		assert.Equal(t, HashToken(res.RefreshToken), active[0].TokenHash)
		assert.Equal(t, models.RoleAdmin, active[0].Role)
		assert.False(t, active[0].IsRevoked)

		claims, err := env.tokens.ValidateAccessToken(ctx, res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, testEmail, claims.Principal.UserID)
		assert.Equal(t, models.RoleAdmin, claims.Principal.Role)
	})

	t.Run("remember me lengthens refresh window", func(t *testing.T) {
		env := newTestEnv(t)

		short, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		long, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword, RememberMe: true})
		require.NoError(t, err)

		assert.True(t, long.RefreshExpiresAt.After(short.RefreshExpiresAt))
	})

	t.Run("mismatch yields one generic message", func(t *testing.T) {
		env := newTestEnv(t)

		for _, req := range []models.SignInRequest{
			{Email: "other@x.com", Password: testPassword},
			{Email: testEmail, Password: "wrong"},
			{Email: "ADMIN@X.COM", Password: testPassword},
		} {
			_, err := env.auth.SignIn(ctx, req)
			appErr := requireKind(t, err, util.KindUnauthorized)
			assert.Equal(t, msgInvalidCredentials, appErr.Msg)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		assert.Empty(t, activeTokens(t, env, testEmail))
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.auth.SignIn(ctx, models.SignInRequest{})
		appErr := requireKind(t, err, util.KindBadRequest)
		assert.Contains(t, appErr.Fields, "email")
		assert.Contains(t, appErr.Fields, "password")
	})

	t.Run("secret store down", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.secrets = failingProvider{err: secrets.ErrSecretStoreUnavailable}

		_, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword})
		require.ErrorIs(t, err, secrets.ErrSecretStoreUnavailable)
		_, isApp := util.AsAppError(err)
		assert.False(t, isApp)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	signIn := func(t *testing.T, env *testEnv) *models.SignInResult {
		t.Helper()
		res, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		return res
	}

	t.Run("blank cookie", func(t *testing.T) {
		env := newTestEnv(t)

		for _, raw := range []string{"", "   "} {
			_, err := env.auth.Refresh(ctx, raw, false)
			requireKind(t, err, util.KindUnauthorized)
			assert.ErrorIs(t, err, ErrRefreshTokenMissing)
		}
		all, err := env.storage.RefreshTokens().FindByUser(ctx, testEmail)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv(t)
		signIn(t, env)

		_, err := env.auth.Refresh(ctx, "unknown", false)
		requireKind(t, err, util.KindUnauthorized)
		assert.ErrorIs(t, err, ErrRefreshTokenNotFoundOrUsed)
	})

	t.Run("rotation collapses sessions", func(t *testing.T) {
		env := newTestEnv(t)
		first := signIn(t, env)
		signIn(t, env)
		signIn(t, env)
		require.Len(t, activeTokens(t, env, testEmail), 3)

		res, err := env.auth.Refresh(ctx, first.RefreshToken, false)
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEqual(t, first.RefreshToken, res.RefreshToken)

		active := activeTokens(t, env, testEmail)
		require.Len(t, active, 1)
		assert.Equal(t, HashToken(res.RefreshToken), active[0].TokenHash)

		all, err := env.storage.RefreshTokens().FindByUser(ctx, testEmail)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for _, tok := range all {
			if tok.TokenHash == HashToken(first.RefreshToken) {
				assert.True(t, tok.IsRevoked)
				assert.Equal(t, reasonUsedForRefresh, tok.RevokedReason)
			}
		}
	})

	t.Run("token cannot be reused", func(t *testing.T) {
		env := newTestEnv(t)
		first := signIn(t, env)

		_, err := env.auth.Refresh(ctx, first.RefreshToken, false)
		require.NoError(t, err)

		_, err = env.auth.Refresh(ctx, first.RefreshToken, false)
		requireKind(t, err, util.KindUnauthorized)
		assert.Len(t, activeTokens(t, env, testEmail), 1)
	})

	t.Run("expired token", func(t *testing.T) {
		env := newTestEnv(t)
		first := signIn(t, env)

		env.auth.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		_, err := env.auth.Refresh(ctx, first.RefreshToken, false)
		requireKind(t, err, util.KindUnauthorized)
	})

	t.Run("failure keeps old token", func(t *testing.T) {
		env := newTestEnv(t)
		first := signIn(t, env)
		env.auth.storage = failingAddStorage{env.storage}

		_, err := env.auth.Refresh(ctx, first.RefreshToken, false)
		require.Error(t, err)

		active := activeTokens(t, env, testEmail)
		require.Len(t, active, 1)
		assert.Equal(t, HashToken(first.RefreshToken), active[0].TokenHash)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.auth.SignIn(ctx, models.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, res.RefreshToken, res.AccessToken))
	assert.Empty(t, activeTokens(t, env, testEmail))

	_, err = env.tokens.ValidateAccessToken(ctx, res.AccessToken)
	assert.True(t, errors.Is(err, ErrTokenRevoked))

	require.NoError(t, env.auth.Logout(ctx, res.RefreshToken, ""))
	require.NoError(t, env.auth.Logout(ctx, "", ""))
}
