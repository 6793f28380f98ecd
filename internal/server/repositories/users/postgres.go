package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// PostgresRepository implements the users Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, role, email_verified, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.EmailVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// ReplacePending only touches rows that are still unverified, so a verified
// account can never be overwritten through the registration path.
func (r *PostgresRepository) ReplacePending(ctx context.Context, id string, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1 AND email_verified = false
	`
	return r.exec(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = true, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id string, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, active)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
