package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/migrations"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/emailtokens"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/notes"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/refreshtokens"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/uploads"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/users"
)

// PostgresRepositoryManager builds Postgres-backed repositories.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager returns a manager for Postgres repositories.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) EmailTokens(db dbx.DBTX) emailtokens.Repository {
	return emailtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Uploads(db dbx.DBTX) uploads.Repository {
	return uploads.NewPostgresRepository(db)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
