package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	denyListPrefix = "denylist:jti:"
	invalidated    = "invalidated"
)

// TokenStorage keeps revoked access token ids until their natural expiry.
type TokenStorage struct {
	client *redis.Client
}

func NewTokenStorage(client *redis.Client) *TokenStorage {
	return &TokenStorage{client: client}
}

func (s *TokenStorage) InvalidateToken(ctx context.Context, jti string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}
	return s.client.Set(ctx, denyListPrefix+jti, invalidated, expiration).Err()
}

func (s *TokenStorage) IsTokenInvalidated(ctx context.Context, jti string) (bool, error) {
	result, err := s.client.Get(ctx, denyListPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return result == invalidated, nil
}
