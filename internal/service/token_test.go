package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage/memory"
)

var testPrincipal = models.Principal{Email: testEmail, UserID: testEmail, Role: models.RoleAdmin}

func TestIssueAndValidate(t *testing.T) {
	ts := NewTokenService(testTokenConfig(), memory.NewTokenStorage())

	pair, err := ts.Issue(testPrincipal, false)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, HashToken(pair.RefreshToken), pair.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, pair.RefreshTokenHash)

	claims, err := ts.ValidateAccessToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, claims.Principal)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueRememberMeExtendsRefresh(t *testing.T) {
	ts := NewTokenService(testTokenConfig(), memory.NewTokenStorage())
	now := time.Now()
	ts.now = func() time.Time { return now }

	short, err := ts.Issue(testPrincipal, false)
	require.NoError(t, err)
	long, err := ts.Issue(testPrincipal, true)
	require.NoError(t, err)

	assert.Equal(t, now.Add(24*time.Hour), short.RefreshExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), long.RefreshExpiresAt)
	assert.NotEqual(t, short.RefreshToken, long.RefreshToken)
}

func TestValidateRejects(t *testing.T) {
	ctx := context.Background()
	ts := NewTokenService(testTokenConfig(), memory.NewTokenStorage())

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		old := NewTokenService(testTokenConfig(), memory.NewTokenStorage())
		old.now = func() time.Time { return past }
		token, _, err := old.CreateAccessToken(testPrincipal, past)
		require.NoError(t, err)

		_, err = ts.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.JwtSecretKey = []byte("other-secret")
		token, _, err := NewTokenService(cfg, memory.NewTokenStorage()).CreateAccessToken(testPrincipal, time.Now())
		require.NoError(t, err)

		_, err = ts.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.Audience = "someone-else"
		token, _, err := NewTokenService(cfg, memory.NewTokenStorage()).CreateAccessToken(testPrincipal, time.Now())
		require.NoError(t, err)

		_, err = ts.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("HS256", func(t *testing.T) {
		claims := jwt.MapClaims{
			"uid": testEmail,
			"jti": "abc",
			"iss": "backoffice",
			"aud": "backoffice-admin",
			"exp": time.Now().Add(time.Minute).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = ts.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ts.ValidateAccessToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestInvalidateAccessToken(t *testing.T) {
	ctx := context.Background()
	ts := NewTokenService(testTokenConfig(), memory.NewTokenStorage())

	pair, err := ts.Issue(testPrincipal, false)
	require.NoError(t, err)

	require.NoError(t, ts.InvalidateAccessToken(ctx, pair.AccessToken))
	_, err = ts.ValidateAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, ts.InvalidateAccessToken(ctx, "not-a-jwt"))
}
