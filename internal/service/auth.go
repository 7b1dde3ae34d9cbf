package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/secrets"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	msgInvalidCredentials = "Email ou mot de passe incorrect"
	msgRefreshMissing     = "Jeton de rafraîchissement manquant"
	msgRefreshInvalid     = "Jeton de rafraîchissement invalide ou expiré"

	reasonUsedForRefresh = "used for refresh"
	reasonSuperseded     = "superseded by refresh"
	reasonLogout         = "logout"
)

var (
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrRefreshTokenMissing        = errors.New("refresh token missing")
	ErrRefreshTokenNotFoundOrUsed = errors.New("refresh token not found or already used")
)

type AuthService struct {
	storage   storage.Storage
	secrets   secrets.Provider
	tokens    *TokenService
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewAuthService(
	storage storage.Storage,
	secretProvider secrets.Provider,
	tokens *TokenService,
	validator *Validator,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		storage:   storage,
		secrets:   secretProvider,
		tokens:    tokens,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	expectedEmail, err := s.secrets.Secret(ctx, secrets.KeyEmailAdmin)
	if err != nil {
		return nil, fmt.Errorf("resolve admin email: %w", err)
	}
	expectedPassword, err := s.secrets.Secret(ctx, secrets.KeyPasswordAdmin)
	if err != nil {
		return nil, fmt.Errorf("resolve admin password: %w", err)
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(expectedEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(expectedPassword)) == 1
	if !emailOK || !passwordOK {
		s.log.Warnw("Sign-in rejected")
		return nil, util.Unauthorized(ErrInvalidCredentials, msgInvalidCredentials)
	}

	principal := models.Principal{Email: req.Email, UserID: req.Email, Role: models.RoleAdmin}
	pair, err := s.tokens.Issue(principal, req.RememberMe)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	err = s.storage.Do(ctx, func(r storage.Repositories) error {
		return r.RefreshTokens().Add(ctx, s.newRefreshToken(principal, pair))
	})
	if err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	s.log.Infow("Admin signed in", "userID", principal.UserID, "rememberMe", req.RememberMe)
	return &models.SignInResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Refresh rotates the presented refresh token. The old token, every sibling
// of the same user and the new token are written in one unit of work.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, rememberMe bool) (*models.SignInResult, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, util.Unauthorized(ErrRefreshTokenMissing, msgRefreshMissing)
	}
	hash := HashToken(rawToken)

	var pair *models.TokenPair
	var principal models.Principal
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		current, err := r.RefreshTokens().FindActiveByHash(ctx, hash, s.now())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return util.Unauthorized(ErrRefreshTokenNotFoundOrUsed, msgRefreshInvalid)
			}
			return fmt.Errorf("find refresh token: %w", err)
		}
		principal = current.Principal()

		pair, err = s.tokens.Issue(principal, rememberMe)
		if err != nil {
			return fmt.Errorf("issue tokens: %w", err)
		}

		if err := r.RefreshTokens().Revoke(ctx, current.ID, reasonUsedForRefresh); err != nil {
			if errors.Is(err, storage.ErrStaleRecord) {
				return util.Unauthorized(ErrRefreshTokenNotFoundOrUsed, msgRefreshInvalid)
			}
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		revoked, err := r.RefreshTokens().RevokeAllForUser(ctx, principal.UserID, reasonSuperseded)
		if err != nil {
			return fmt.Errorf("revoke sibling tokens: %w", err)
		}
		if revoked > 0 {
			s.log.Infow("Revoked sibling refresh tokens", "userID", principal.UserID, "count", revoked)
		}

		return r.RefreshTokens().Add(ctx, s.newRefreshToken(principal, pair))
	})
	if err != nil {
		return nil, err
	}

	return &models.SignInResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Logout revokes the cookie's refresh token and deny-lists the bearer access
// token. Both are optional, so repeated calls succeed.
func (s *AuthService) Logout(ctx context.Context, rawToken, accessToken string) error {
	if accessToken != "" {
		if err := s.tokens.InvalidateAccessToken(ctx, accessToken); err != nil {
			return err
		}
	}
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}

	hash := HashToken(rawToken)
	return s.storage.Do(ctx, func(r storage.Repositories) error {
		current, err := r.RefreshTokens().FindActiveByHash(ctx, hash, s.now())
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		} else if err != nil {
			return fmt.Errorf("find refresh token: %w", err)
		}

		if err := r.RefreshTokens().Revoke(ctx, current.ID, reasonLogout); err != nil && !errors.Is(err, storage.ErrStaleRecord) {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		s.log.Infow("Admin logged out", "userID", current.UserID)
		return nil
	})
}

func (s *AuthService) newRefreshToken(p models.Principal, pair *models.TokenPair) *models.RefreshToken {
	expiresAt := pair.RefreshExpiresAt
	return &models.RefreshToken{
		ID:        uuid.New(),
		TokenHash: pair.RefreshTokenHash,
		Email:     p.Email,
		UserID:    p.UserID,
		Role:      p.Role,
		CreatedAt: s.now(),
		ExpiresAt: &expiresAt,
	}
}
