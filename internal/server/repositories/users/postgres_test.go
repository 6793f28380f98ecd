package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRows(u *models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "role", "email_verified", "is_active", "created_at", "updated_at",
	}).AddRow(u.ID, u.Email, u.PasswordHash, u.Role, u.EmailVerified, u.IsActive, u.CreatedAt, u.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	want := &models.User{
		ID: "u1", Email: "a@supnum.mr", PasswordHash: "hash", Role: "student",
		EmailVerified: false, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}

	q := `(?s)^\s*INSERT\s+INTO\s+users\b.*RETURNING\s+id,\s*email`
	mock.ExpectQuery(q).
		WithArgs("a@supnum.mr", "hash", "student").
		WillReturnRows(userRows(want))

	got, err := repo.Create(context.Background(), &models.User{Email: "a@supnum.mr", PasswordHash: "hash", Role: "student"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "u1" || !got.IsActive || got.EmailVerified {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("missing@supnum.mr").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@supnum.mr")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("u1").WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), "u1")
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetVerified_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+email_verified\s*=\s*true`
	mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetVerified(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetActive_UnknownID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+is_active`
	mock.ExpectExec(q).WithArgs("ghost", false).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "ghost", false)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestReplacePending_OnlyTouchesUnverified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2.*email_verified\s*=\s*false`
	mock.ExpectExec(q).WithArgs("u1", "newhash").WillReturnResult(sqlmock.NewResult(0, 0))

	// A verified account matches zero rows and surfaces as not found.
	err := repo.ReplacePending(context.Background(), "u1", "newhash")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
