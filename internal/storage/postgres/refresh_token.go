package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

const refreshTokenColumns = `id, token_hash, email, user_id, role, created_at, expires_at, is_revoked, revoked_reason`

type RefreshTokenRepository struct {
	db storage.DBTX
}

func NewRefreshTokenRepository(db storage.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Add(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.Email,
		token.UserID,
		token.Role,
		token.CreatedAt,
		token.ExpiresAt,
		token.IsRevoked,
		token.RevokedReason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", mapError(err))
	}
	return nil
}

func (r *RefreshTokenRepository) FindActiveByHash(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*models.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens
		WHERE token_hash = $1 AND NOT is_revoked AND (expires_at IS NULL OR expires_at > $2)`
	token, err := scanRefreshToken(r.db.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", mapError(err))
	}
	return token, nil
}

// Revoke only flips tokens that are still active, so two concurrent rotations
// of the same token cannot both succeed.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE, revoked_reason = $2 WHERE id = $1 AND NOT is_revoked`
	res, err := r.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return expectOneRow(res)
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error) {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE, revoked_reason = $2 WHERE user_id = $1 AND NOT is_revoked`
	res, err := r.db.ExecContext(ctx, query, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *RefreshTokenRepository) FindByUser(ctx context.Context, userID string) ([]models.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("find refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.RefreshToken
	for rows.Next() {
		token, err := scanRefreshToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	return tokens, rows.Err()
}

func scanRefreshToken(row scanner) (*models.RefreshToken, error) {
	var (
		token     models.RefreshToken
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.Email,
		&token.UserID,
		&token.Role,
		&token.CreatedAt,
		&expiresAt,
		&token.IsRevoked,
		&token.RevokedReason,
	)
	if err != nil {
		return nil, err
	}
	token.ExpiresAt = timePtr(expiresAt)
	return &token, nil
}
