package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

func newApplication(ref string) *models.Application {
	return &models.Application{
		ID:        uuid.New(),
		Reference: ref,
		Name:      "App " + ref,
		IsActif:   true,
		Audit:     models.NewAudit("admin@example.com", time.Now()),
	}
}

func TestDoRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	boom := errors.New("boom")

	err := s.Do(ctx, func(r storage.Repositories) error {
		require.NoError(t, r.Applications().Add(ctx, newApplication("crm")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	apps, err := s.Applications().Find(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestDoRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	assert.Panics(t, func() {
		_ = s.Do(ctx, func(r storage.Repositories) error {
			_ = r.Applications().Add(ctx, newApplication("crm"))
			panic("boom")
		})
	})

	_, err := s.Applications().GetByReference(ctx, "crm")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDoCommits(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	err := s.Do(ctx, func(r storage.Repositories) error {
		return r.Applications().Add(ctx, newApplication("crm"))
	})
	require.NoError(t, err)

	app, err := s.Applications().GetByReference(ctx, "crm")
	require.NoError(t, err)
	assert.Equal(t, "App crm", app.Name)
}

func TestApplicationReferenceIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	require.NoError(t, s.Applications().Add(ctx, newApplication("crm")))
	err := s.Applications().Add(ctx, newApplication("crm"))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestRefreshTokenRevokeIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	now := time.Now()
	exp := now.Add(time.Hour)

	token := &models.RefreshToken{
		ID:        uuid.New(),
		TokenHash: "hash",
		Email:     "admin@example.com",
		UserID:    "admin@example.com",
		Role:      models.RoleAdmin,
		CreatedAt: now,
		ExpiresAt: &exp,
	}
	require.NoError(t, s.RefreshTokens().Add(ctx, token))

	found, err := s.RefreshTokens().FindActiveByHash(ctx, "hash", now)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)

	require.NoError(t, s.RefreshTokens().Revoke(ctx, token.ID, "rotated"))
	assert.ErrorIs(t, s.RefreshTokens().Revoke(ctx, token.ID, "rotated"), storage.ErrStaleRecord)

	_, err = s.RefreshTokens().FindActiveByHash(ctx, "hash", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRefreshTokenExpired(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	now := time.Now()
	past := now.Add(-time.Minute)

	require.NoError(t, s.RefreshTokens().Add(ctx, &models.RefreshToken{
		ID: uuid.New(), TokenHash: "old", UserID: "u", CreatedAt: past, ExpiresAt: &past,
	}))

	_, err := s.RefreshTokens().FindActiveByHash(ctx, "old", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	now := time.Now()

	for _, hash := range []string{"a", "b"} {
		require.NoError(t, s.RefreshTokens().Add(ctx, &models.RefreshToken{
			ID: uuid.New(), TokenHash: hash, UserID: "u1", CreatedAt: now,
		}))
	}
	require.NoError(t, s.RefreshTokens().Add(ctx, &models.RefreshToken{
		ID: uuid.New(), TokenHash: "c", UserID: "u2", CreatedAt: now,
	}))

	n, err := s.RefreshTokens().RevokeAllForUser(ctx, "u1", "logout")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	tokens, err := s.RefreshTokens().FindByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.False(t, tokens[0].IsRevoked)
}

func TestMenuUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	now := time.Now()
	app := newApplication("crm")
	require.NoError(t, s.Applications().Add(ctx, app))

	menu := &models.Menu{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Reference:     "home",
		Label:         "Accueil",
		Route:         "/",
		IsActif:       true,
		Audit:         models.NewAudit("admin", now),
	}
	require.NoError(t, s.Menus().Add(ctx, menu))

	first := *menu
	first.Label = "Maison"
	first.Touch("admin", now)
	require.NoError(t, s.Menus().Update(ctx, &first))

	stale := *menu
	stale.Label = "Home"
	stale.Touch("admin", now)
	assert.ErrorIs(t, s.Menus().Update(ctx, &stale), storage.ErrStaleRecord)

	got, err := s.Menus().GetByReference(ctx, app.ID, "home")
	require.NoError(t, err)
	assert.Equal(t, "Maison", got.Label)
}

func TestStockQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	tenant := models.Tenant{ApplicationID: "app", BoutiqueID: "b1"}
	other := models.Tenant{ApplicationID: "app", BoutiqueID: "b2"}
	articleID := uuid.New()
	now := time.Now()

	for _, m := range []models.StockMovement{
		{Tenant: tenant, Type: models.MovementIn, Quantity: 10},
		{Tenant: tenant, Type: models.MovementOut, Quantity: 3},
		{Tenant: tenant, Type: models.MovementAdjustment, Quantity: -2},
		{Tenant: other, Type: models.MovementIn, Quantity: 100},
	} {
		m.ID = uuid.New()
		m.ArticleID = articleID
		m.OccurredAt = now
		require.NoError(t, s.StockMovements().Add(ctx, &m))
	}

	qty, err := s.StockMovements().Quantity(ctx, tenant, articleID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, qty)
}

func TestCashFlowFilterIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	tenant := models.Tenant{ApplicationID: "app", BoutiqueID: "b1"}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, s.CashFlows().Add(ctx, &models.CashFlow{
			ID:         uuid.New(),
			Tenant:     tenant,
			Type:       models.FlowIncome,
			Amount:     100,
			OccurredAt: day.AddDate(0, 0, i),
		}))
	}

	from, to := day, day.AddDate(0, 0, 2)
	flows, err := s.CashFlows().Find(ctx, tenant, models.CashFlowFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestTokenStorageExpires(t *testing.T) {
	ctx := context.Background()
	ts := NewTokenStorage()
	now := time.Now()
	ts.now = func() time.Time { return now }

	require.NoError(t, ts.InvalidateToken(ctx, "jti-1", time.Minute))

	denied, err := ts.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)

	now = now.Add(2 * time.Minute)
	denied, err = ts.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)
}
