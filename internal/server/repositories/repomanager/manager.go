// Package repomanager hands out repository instances bound to a DBTX and
// owns schema migrations. Services use it to run several repositories inside
// one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/emailtokens"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/notes"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/refreshtokens"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/uploads"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/users"
)

// RepositoryManager builds repositories over a shared connection or
// transaction handle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	EmailTokens(db dbx.DBTX) emailtokens.Repository
	Notes(db dbx.DBTX) notes.Repository
	Uploads(db dbx.DBTX) uploads.Repository
}
