// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Repository defines persistence operations over accounts. No operation
// deletes an account; deactivation is a state change.
type Repository interface {
	// Create inserts a new account and returns it with store-assigned fields
	// (id, timestamps) populated.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the account with the given (normalized) email, or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the account with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// ReplacePending overwrites the password hash of a still-unverified
	// account, covering re-registration before the first verification email
	// was acted on.
	ReplacePending(ctx context.Context, id string, passwordHash string) error

	// SetVerified marks the account's email as verified.
	SetVerified(ctx context.Context, id string) error

	// SetPasswordHash replaces the account's password hash.
	SetPasswordHash(ctx context.Context, id string, passwordHash string) error

	// SetActive toggles the account's active flag.
	SetActive(ctx context.Context, id string, active bool) error
}
