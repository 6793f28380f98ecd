package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// PostgresRepository implements the notes Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert relies on ON CONFLICT so created_at survives re-uploads while the
// payload and updated_at are replaced.
func (r *PostgresRepository) Upsert(ctx context.Context, note *models.StudentNote) (bool, error) {
	query := `
		INSERT INTO student_notes (matricule, department, first_name, last_name, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (matricule) DO UPDATE
		SET department = EXCLUDED.department,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    data = EXCLUDED.data,
		    updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		note.Matricule, note.Department, note.FirstName, note.LastName, []byte(note.Data)).
		Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) Get(ctx context.Context, matricule int) (*models.StudentNote, error) {
	query := `
		SELECT matricule, department, first_name, last_name, data, created_at, updated_at
		FROM student_notes
		WHERE matricule = $1
	`
	note := &models.StudentNote{}
	var data []byte
	err := r.db.QueryRowContext(ctx, query, matricule).
		Scan(&note.Matricule, &note.Department, &note.FirstName, &note.LastName, &data, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	note.Data = data
	return note, nil
}

func (r *PostgresRepository) List(ctx context.Context, department string) ([]*models.StudentNote, error) {
	query := `
		SELECT matricule, department, first_name, last_name, data, created_at, updated_at
		FROM student_notes
		WHERE $1 = '' OR department = $1
		ORDER BY matricule
	`
	rows, err := r.db.QueryContext(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.StudentNote
	for rows.Next() {
		note := &models.StudentNote{}
		var data []byte
		if err := rows.Scan(&note.Matricule, &note.Department, &note.FirstName, &note.LastName,
			&data, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		note.Data = data
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
