package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

type refreshTokenRepo struct{ *repositories }

func (r refreshTokenRepo) Add(_ context.Context, token *models.RefreshToken) error {
	defer r.lock()()
	for _, t := range r.s.st.refreshTokens {
		if t.TokenHash == token.TokenHash {
			return fmt.Errorf("%w: refresh token hash", storage.ErrConflict)
		}
	}
	r.s.st.refreshTokens[token.ID] = *token
	return nil
}

func (r refreshTokenRepo) FindActiveByHash(_ context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	defer r.lock()()
	for _, t := range r.s.st.refreshTokens {
		if t.TokenHash == tokenHash && t.IsActive(now) {
			return &t, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r refreshTokenRepo) Revoke(_ context.Context, id uuid.UUID, reason string) error {
	defer r.lock()()
	t, ok := r.s.st.refreshTokens[id]
	if !ok || t.IsRevoked {
		return storage.ErrStaleRecord
	}
	t.IsRevoked = true
	t.RevokedReason = reason
	r.s.st.refreshTokens[id] = t
	return nil
}

func (r refreshTokenRepo) RevokeAllForUser(_ context.Context, userID, reason string) (int64, error) {
	defer r.lock()()
	var n int64
	for id, t := range r.s.st.refreshTokens {
		if t.UserID != userID || t.IsRevoked {
			continue
		}
		t.IsRevoked = true
		t.RevokedReason = reason
		r.s.st.refreshTokens[id] = t
		n++
	}
	return n, nil
}

func (r refreshTokenRepo) FindByUser(_ context.Context, userID string) ([]models.RefreshToken, error) {
	defer r.lock()()
	var tokens []models.RefreshToken
	for _, t := range r.s.st.refreshTokens {
		if t.UserID == userID {
			tokens = append(tokens, t)
		}
	}
	slices.SortFunc(tokens, func(a, b models.RefreshToken) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return tokens, nil
}

type apiKeyRepo struct{ *repositories }

func (r apiKeyRepo) Add(_ context.Context, key *models.APIKey) error {
	defer r.lock()()
	for _, k := range r.s.st.apiKeys {
		if k.KeyHash == key.KeyHash {
			return fmt.Errorf("%w: api key hash", storage.ErrConflict)
		}
	}
	stored := *key
	stored.Scopes = slices.Clone(key.Scopes)
	r.s.st.apiKeys[key.ID] = stored
	return nil
}

func (r apiKeyRepo) Update(_ context.Context, keys ...*models.APIKey) error {
	defer r.lock()()
	for _, key := range keys {
		stored, ok := r.s.st.apiKeys[key.ID]
		if !ok {
			return fmt.Errorf("update api key %s: %w", key.ID, storage.ErrNotFound)
		}
		stored.ExpiresAt = key.ExpiresAt
		stored.IsRevoked = key.IsRevoked
		stored.RevokedAt = key.RevokedAt
		stored.RevokedReason = key.RevokedReason
		stored.LastUsedAt = key.LastUsedAt
		r.s.st.apiKeys[key.ID] = stored
	}
	return nil
}

func (r apiKeyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.APIKey, error) {
	defer r.lock()()
	k, ok := r.s.st.apiKeys[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &k, nil
}

func (r apiKeyRepo) GetByHash(_ context.Context, keyHash string) (*models.APIKey, error) {
	defer r.lock()()
	for _, k := range r.s.st.apiKeys {
		if k.KeyHash == keyHash {
			return &k, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r apiKeyRepo) Find(_ context.Context, applicationID *uuid.UUID) ([]models.APIKey, error) {
	defer r.lock()()
	var keys []models.APIKey
	for _, k := range r.s.st.apiKeys {
		if applicationID == nil || k.ApplicationID == *applicationID {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b models.APIKey) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return keys, nil
}

func (r apiKeyRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.lock()()
	k, ok := r.s.st.apiKeys[id]
	if !ok {
		return nil
	}
	k.LastUsedAt = &at
	r.s.st.apiKeys[id] = k
	return nil
}
