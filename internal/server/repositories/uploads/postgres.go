package uploads

import (
	"context"
	"fmt"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// PostgresRepository implements the uploads Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, upload *models.Upload) (*models.Upload, error) {
	query := `
		INSERT INTO uploads (filename, storage_key, uploaded_by, uploaded_by_email, year, students_count, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		upload.Filename, upload.StorageKey, upload.UploadedBy, upload.UploadedByEmail,
		upload.Year, upload.StudentsCount, upload.FileSize).
		Scan(&upload.ID, &upload.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return upload, nil
}
