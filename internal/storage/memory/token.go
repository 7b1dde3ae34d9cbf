package memory

import (
	"context"
	"sync"
	"time"
)

// TokenStorage is the in-process deny-list used when no redis is configured.
type TokenStorage struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewTokenStorage() *TokenStorage {
	return &TokenStorage{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *TokenStorage) InvalidateToken(_ context.Context, jti string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.expires {
		if !exp.After(now) {
			delete(s.expires, id)
		}
	}
	s.expires[jti] = now.Add(expiration)
	return nil
}

func (s *TokenStorage) IsTokenInvalidated(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expires[jti]
	return ok && exp.After(s.now()), nil
}
