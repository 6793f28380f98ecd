package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// PostgresRepository implements the refresh-token Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, fingerprint string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, fingerprint, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, fingerprint, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, fingerprint string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, issued_at, expires_at, revoked_at
		FROM refresh_tokens
		WHERE fingerprint = $1
	`
	token := &models.RefreshToken{Fingerprint: fingerprint}
	err := r.db.QueryRowContext(ctx, query, fingerprint).
		Scan(&token.ID, &token.UserID, &token.IssuedAt, &token.ExpiresAt, &token.RevokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Revoke is conditional on revoked_at still being null: of two concurrent
// attempts on the same token exactly one observes RowsAffected == 1.
func (r *PostgresRepository) Revoke(ctx context.Context, fingerprint string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE fingerprint = $1 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, fingerprint)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > now()
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
