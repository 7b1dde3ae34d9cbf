package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

const apiKeyColumns = `id, key_hash, key_prefix, application_id, application_name, scopes, created_at,
	expires_at, is_revoked, revoked_at, revoked_reason, last_used_at, rotated_from_id`

type APIKeyRepository struct {
	db storage.DBTX
}

func NewAPIKeyRepository(db storage.DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Add(ctx context.Context, key *models.APIKey) error {
	query := `INSERT INTO api_keys (` + apiKeyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		key.ID,
		key.KeyHash,
		key.KeyPrefix,
		key.ApplicationID,
		key.ApplicationName,
		pq.Array(key.Scopes),
		key.CreatedAt,
		key.ExpiresAt,
		key.IsRevoked,
		key.RevokedAt,
		key.RevokedReason,
		key.LastUsedAt,
		key.RotatedFromID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", mapError(err))
	}
	return nil
}

func (r *APIKeyRepository) Update(ctx context.Context, keys ...*models.APIKey) error {
	query := `UPDATE api_keys SET expires_at = $2, is_revoked = $3, revoked_at = $4, revoked_reason = $5, last_used_at = $6
		WHERE id = $1`
	for _, key := range keys {
		res, err := r.db.ExecContext(ctx, query, key.ID, key.ExpiresAt, key.IsRevoked, key.RevokedAt, key.RevokedReason, key.LastUsedAt)
		if err != nil {
			return fmt.Errorf("failed to update api key %s: %w", key.ID, err)
		}
		if err := expectOneRow(res); err != nil {
			return fmt.Errorf("update api key %s: %w", key.ID, storage.ErrNotFound)
		}
	}
	return nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`
	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", mapError(err))
	}
	return key, nil
}

func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1`
	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		return nil, fmt.Errorf("get api key by hash: %w", mapError(err))
	}
	return key, nil
}

func (r *APIKeyRepository) Find(ctx context.Context, applicationID *uuid.UUID) ([]models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys`
	var args []any
	if applicationID != nil {
		query += ` WHERE application_id = $1`
		args = append(args, *applicationID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}

func scanAPIKey(row scanner) (*models.APIKey, error) {
	var (
		key                            models.APIKey
		expiresAt, revokedAt, lastUsed sql.NullTime
		rotatedFrom                    uuid.NullUUID
	)
	err := row.Scan(
		&key.ID,
		&key.KeyHash,
		&key.KeyPrefix,
		&key.ApplicationID,
		&key.ApplicationName,
		pq.Array(&key.Scopes),
		&key.CreatedAt,
		&expiresAt,
		&key.IsRevoked,
		&revokedAt,
		&key.RevokedReason,
		&lastUsed,
		&rotatedFrom,
	)
	if err != nil {
		return nil, err
	}
	key.ExpiresAt = timePtr(expiresAt)
	key.RevokedAt = timePtr(revokedAt)
	key.LastUsedAt = timePtr(lastUsed)
	if rotatedFrom.Valid {
		id := rotatedFrom.UUID
		key.RotatedFromID = &id
	}
	return &key, nil
}
