package secrets

import (
	"context"
	"errors"
	"fmt"
)

const (
	KeyEmailAdmin    = "EmailAdmin"
	KeyPasswordAdmin = "PasswordAdmin"
	KeyJwtSecret     = "JwtSecret"
)

var (
	ErrSecretNotFound         = errors.New("secret not found")
	ErrSecretStoreUnavailable = errors.New("secret store unavailable")
)

// Provider resolves a named secret. Implementations do not cache.
type Provider interface {
	Secret(ctx context.Context, key string) (string, error)
}

type StaticProvider struct {
	values map[string]string
}

func NewStaticProvider(values map[string]string) *StaticProvider {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			copied[k] = v
		}
	}
	return &StaticProvider{values: copied}
}

func (p *StaticProvider) Secret(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}
	v, ok := p.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return v, nil
}
