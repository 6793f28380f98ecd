package emailtokens

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

// PostgresRepository implements the email-token Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, purpose string, fingerprint string, validity time.Duration) error {
	query := `
		INSERT INTO email_tokens (user_id, purpose, fingerprint, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, purpose, fingerprint, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, fingerprint string, purpose string) (*models.EmailToken, error) {
	query := `
		SELECT id, user_id, issued_at, expires_at, consumed_at
		FROM email_tokens
		WHERE fingerprint = $1 AND purpose = $2
	`
	token := &models.EmailToken{Fingerprint: fingerprint, Purpose: purpose}
	err := r.db.QueryRowContext(ctx, query, fingerprint, purpose).
		Scan(&token.ID, &token.UserID, &token.IssuedAt, &token.ExpiresAt, &token.ConsumedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Consume is conditional on consumed_at still being null, which is what
// guarantees at-most-one success under a double-clicked email link.
func (r *PostgresRepository) Consume(ctx context.Context, fingerprint string, purpose string) (bool, error) {
	query := `
		UPDATE email_tokens
		SET consumed_at = now()
		WHERE fingerprint = $1 AND purpose = $2 AND consumed_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, fingerprint, purpose)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) SupersedeAllForUser(ctx context.Context, userID string, purpose string) error {
	query := `
		UPDATE email_tokens
		SET consumed_at = now()
		WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID, purpose); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
