// Package uploads declares the repository contract for grade-sheet upload
// records.
package uploads

import (
	"context"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Repository persists metadata about processed CSV uploads.
type Repository interface {
	// Create inserts a new upload record and returns it with the
	// store-assigned id and timestamp populated.
	Create(ctx context.Context, upload *models.Upload) (*models.Upload, error)
}
