package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/util"
)

// VaultProvider reads secrets from one KV v2 path, authenticating with AppRole.
type VaultProvider struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	login func(ctx context.Context) error
	read  func(ctx context.Context) (map[string]interface{}, error)
}

func NewVaultProvider(ctx context.Context, logger *zap.SugaredLogger, cfg *util.VaultConfig) (*VaultProvider, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.URI

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}

	appRoleAuth, err := approle.NewAppRoleAuth(cfg.RoleID, &approle.SecretID{FromString: cfg.SecretID})
	if err != nil {
		return nil, fmt.Errorf("vault approle: %w", err)
	}

	p := &VaultProvider{
		log: logger,
		login: func(ctx context.Context) error {
			authInfo, err := client.Auth().Login(ctx, appRoleAuth)
			if err != nil {
				return err
			}
			if authInfo == nil {
				return errors.New("no auth info returned")
			}
			return nil
		},
		read: func(ctx context.Context) (map[string]interface{}, error) {
			secret, err := client.KVv2(cfg.Mount).Get(ctx, cfg.Path)
			if err != nil {
				return nil, err
			}
			return secret.Data, nil
		},
	}

	if err := p.login(ctx); err != nil {
		return nil, fmt.Errorf("%w: vault login: %v", ErrSecretStoreUnavailable, err)
	}
	logger.Infow("Authenticated to Vault", "address", cfg.URI, "mount", cfg.Mount, "path", cfg.Path)
	return p, nil
}

func (p *VaultProvider) Secret(ctx context.Context, key string) (string, error) {
	data, err := p.fetch(ctx)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
		}
		return "", fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}

	raw, ok := data[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	v, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrSecretNotFound, key)
	}
	return v, nil
}

// fetch retries once after a fresh login when the AppRole token was rejected.
func (p *VaultProvider) fetch(ctx context.Context) (map[string]interface{}, error) {
	data, err := p.read(ctx)
	if !isForbidden(err) {
		return data, err
	}

	p.log.Warnw("Vault token rejected, logging in again", "error", err)
	p.mu.Lock()
	loginErr := p.login(ctx)
	p.mu.Unlock()
	if loginErr != nil {
		return nil, fmt.Errorf("vault re-login: %w", loginErr)
	}
	return p.read(ctx)
}

func isForbidden(err error) bool {
	var respErr *vault.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusForbidden
}
