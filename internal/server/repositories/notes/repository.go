// Package notes declares the repository contract for student grade
// documents.
package notes

import (
	"context"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Repository defines persistence operations over student notes. Documents
// are keyed by matricule and upserted: re-uploading a sheet replaces the
// payload while preserving created_at.
type Repository interface {
	// Upsert creates or replaces the note document for note.Matricule and
	// reports whether a new row was created.
	Upsert(ctx context.Context, note *models.StudentNote) (bool, error)

	// Get returns the document for a matricule, or common.ErrorNotFound.
	Get(ctx context.Context, matricule int) (*models.StudentNote, error)

	// List returns all documents, optionally restricted to one department.
	// Semester/year filtering over the JSON payload happens in the service.
	List(ctx context.Context, department string) ([]*models.StudentNote, error)
}
