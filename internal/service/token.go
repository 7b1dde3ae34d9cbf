package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

type TokenService struct {
	jwtSecretKey  []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	rememberMeTTL time.Duration
	tokenStorage  storage.TokenStorage
	now           func() time.Time
}

func NewTokenService(cfg *util.TokenConfig, tokenStorage storage.TokenStorage) *TokenService {
	return &TokenService{
		jwtSecretKey:  cfg.JwtSecretKey,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		rememberMeTTL: cfg.RememberMeTTL,
		tokenStorage:  tokenStorage,
		now:           time.Now,
	}
}

type jwtClaims struct {
	Email  string `json:"email"`
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AccessClaims is what a validated access token tells about its bearer.
type AccessClaims struct {
	Principal models.Principal
	ID        string
	ExpiresAt time.Time
}

// Issue signs an access token for p and draws a fresh refresh token.
// rememberMe selects the long refresh window.
func (ts *TokenService) Issue(p models.Principal, rememberMe bool) (*models.TokenPair, error) {
	now := ts.now()

	access, accessExp, err := ts.CreateAccessToken(p, now)
	if err != nil {
		return nil, err
	}

	raw, hash, err := CreateRefreshToken()
	if err != nil {
		return nil, err
	}

	ttl := ts.refreshTTL
	if rememberMe {
		ttl = ts.rememberMeTTL
	}

	return &models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     raw,
		RefreshTokenHash: hash,
		RefreshExpiresAt: now.Add(ttl),
	}, nil
}

// CreateAccessToken creates an HS512 signed access token with a new JTI.
func (ts *TokenService) CreateAccessToken(p models.Principal, now time.Time) (string, time.Time, error) {
	exp := now.Add(ts.accessTTL)
	claims := &jwtClaims{
		Email:  p.Email,
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if ts.audience != "" {
		claims.Audience = jwt.ClaimStrings{ts.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signed string: %w", err)
	}

	return signedToken, exp, nil
}

// CreateRefreshToken returns the raw token for the client and its hash for storage.
func CreateRefreshToken() (token, tokenHash string, err error) {
	rawToken := make([]byte, util.RawTokenLength)
	if _, err = rand.Read(rawToken); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	token = base64.RawURLEncoding.EncodeToString(rawToken)
	return token, HashToken(token), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (ts *TokenService) ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, error) {
	claims, err := ts.parse(token)
	if err != nil {
		return nil, err
	}

	isInvalidated, err := ts.tokenStorage.IsTokenInvalidated(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("is token invalidated: %w", err)
	}
	if isInvalidated {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// InvalidateAccessToken deny-lists token for the rest of its lifetime.
// Tokens that no longer verify are ignored.
func (ts *TokenService) InvalidateAccessToken(ctx context.Context, token string) error {
	claims, err := ts.parse(token)
	if err != nil {
		return nil
	}

	expiration := claims.ExpiresAt.Sub(ts.now())
	if err := ts.tokenStorage.InvalidateToken(ctx, claims.ID, expiration); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (ts *TokenService) parse(token string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}
	if ts.audience != "" {
		opts = append(opts, jwt.WithAudience(ts.audience))
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&jwtClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return ts.jwtSecretKey, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsedToken.Claims.(*jwtClaims)
	if !ok || !parsedToken.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return &AccessClaims{
		Principal: models.Principal{Email: claims.Email, UserID: claims.UserID, Role: claims.Role},
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
