package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	apiKeyPrefix       = "bk_"
	apiKeyDisplayChars = 8

	reasonRotated = "rotated"
	reasonRevoked = "revoked"
)

var (
	ErrAPIKeyMissing = errors.New("api key missing")
	ErrAPIKeyInvalid = errors.New("api key invalid")
)

// RotationNotifier is told about every completed rotation.
type RotationNotifier interface {
	NotifyKeyRotated(event models.APIKeyRotatedEvent)
}

type APIKeyService struct {
	storage   storage.Storage
	notifier  RotationNotifier
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewAPIKeyService(
	storage storage.Storage,
	notifier RotationNotifier,
	validator *Validator,
	log *zap.SugaredLogger,
) *APIKeyService {
	return &APIKeyService{
		storage:   storage,
		notifier:  notifier,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

func (s *APIKeyService) Issue(ctx context.Context, req models.IssueAPIKeyRequest) (*models.IssuedAPIKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var issued *models.IssuedAPIKey
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		app, err := r.Applications().GetByID(ctx, req.ApplicationID)
		if errors.Is(err, storage.ErrNotFound) {
			return util.NotFound("Application %s introuvable", req.ApplicationID)
		} else if err != nil {
			return err
		}

		now := s.now()
		var expiresAt *time.Time
		if req.ExpiresInDays != nil {
			exp := now.AddDate(0, 0, *req.ExpiresInDays)
			expiresAt = &exp
		}

		issued, err = s.newKey(app.ID, app.Name, req.Scopes, now, expiresAt, nil)
		if err != nil {
			return err
		}
		return r.APIKeys().Add(ctx, &issued.APIKey)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("API key issued", "keyID", issued.APIKey.ID, "applicationID", issued.APIKey.ApplicationID)
	return issued, nil
}

func (s *APIKeyService) List(ctx context.Context, applicationID *uuid.UUID) ([]models.APIKey, error) {
	keys, err := s.storage.APIKeys().Find(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// Rotate issues a successor with the same application and scopes. The old key
// stays usable for the grace period at most; a zero grace revokes it now.
func (s *APIKeyService) Rotate(ctx context.Context, id uuid.UUID, req models.RotateAPIKeyRequest) (*models.IssuedAPIKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		issued *models.IssuedAPIKey
		old    *models.APIKey
	)
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		var err error
		old, err = r.APIKeys().GetByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return util.NotFound("Clé API %s introuvable", id)
		} else if err != nil {
			return err
		}

		now := s.now()
		if !old.IsValid(now) {
			return util.BadRequest("Impossible de renouveler une clé révoquée ou expirée")
		}

		var expiresAt *time.Time
		if old.ExpiresAt != nil {
			exp := now.Add(old.ExpiresAt.Sub(old.CreatedAt))
			expiresAt = &exp
		}

		issued, err = s.newKey(old.ApplicationID, old.ApplicationName, old.Scopes, now, expiresAt, &old.ID)
		if err != nil {
			return err
		}

		if req.GracePeriodDays == 0 {
			old.IsRevoked = true
			old.RevokedAt = &now
			old.RevokedReason = reasonRotated
		} else {
			graceEnd := now.AddDate(0, 0, req.GracePeriodDays)
			if old.ExpiresAt == nil || old.ExpiresAt.After(graceEnd) {
				old.ExpiresAt = &graceEnd
			}
		}

		if err := r.APIKeys().Update(ctx, old); err != nil {
			return err
		}
		return r.APIKeys().Add(ctx, &issued.APIKey)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("API key rotated",
		"oldKeyID", old.ID,
		"newKeyID", issued.APIKey.ID,
		"gracePeriodDays", req.GracePeriodDays,
	)

	var validTo *time.Time
	if !old.IsRevoked {
		validTo = old.ExpiresAt
	}
	s.notifier.NotifyKeyRotated(models.APIKeyRotatedEvent{
		ApplicationID: old.ApplicationID,
		OldKeyID:      old.ID,
		NewKeyID:      issued.APIKey.ID,
		OldKeyValidTo: validTo,
	})

	return issued, nil
}

// Revoke is idempotent: an already revoked key is returned unchanged.
func (s *APIKeyService) Revoke(ctx context.Context, id uuid.UUID, req models.RevokeAPIKeyRequest) (*models.APIKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var key *models.APIKey
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		var err error
		key, err = r.APIKeys().GetByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return util.NotFound("Clé API %s introuvable", id)
		} else if err != nil {
			return err
		}
		if key.IsRevoked {
			return nil
		}

		now := s.now()
		key.IsRevoked = true
		key.RevokedAt = &now
		key.RevokedReason = req.Reason
		if key.RevokedReason == "" {
			key.RevokedReason = reasonRevoked
		}
		return r.APIKeys().Update(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("API key revoked", "keyID", key.ID, "reason", key.RevokedReason)
	return key, nil
}

// Validate resolves a raw key presented by a caller.
func (s *APIKeyService) Validate(ctx context.Context, raw string) (*models.APIKey, error) {
	if raw == "" {
		return nil, util.Unauthorized(ErrAPIKeyMissing, "Clé API manquante")
	}

	hash := HashToken(raw)
	key, err := s.storage.APIKeys().GetByHash(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, util.Unauthorized(ErrAPIKeyInvalid, "Clé API invalide")
	} else if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	now := s.now()
	if subtle.ConstantTimeCompare([]byte(hash), []byte(key.KeyHash)) != 1 || !key.IsValid(now) {
		return nil, util.Unauthorized(ErrAPIKeyInvalid, "Clé API invalide")
	}

	if err := s.storage.APIKeys().TouchLastUsed(ctx, key.ID, now); err != nil {
		s.log.Warnw("failed to record api key usage", "keyID", key.ID, "error", err)
	}
	return key, nil
}

func (s *APIKeyService) newKey(
	applicationID uuid.UUID,
	applicationName string,
	scopes []string,
	now time.Time,
	expiresAt *time.Time,
	rotatedFrom *uuid.UUID,
) (*models.IssuedAPIKey, error) {
	rawKey := make([]byte, util.RawTokenLength)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	key := apiKeyPrefix + base64.RawURLEncoding.EncodeToString(rawKey)

	return &models.IssuedAPIKey{
		Key: key,
		APIKey: models.APIKey{
			ID:              uuid.New(),
			KeyHash:         HashToken(key),
			KeyPrefix:       key[:apiKeyDisplayChars],
			ApplicationID:   applicationID,
			ApplicationName: applicationName,
			Scopes:          slices.Clone(scopes),
			CreatedAt:       now,
			ExpiresAt:       expiresAt,
			RotatedFromID:   rotatedFrom,
		},
	}, nil
}
