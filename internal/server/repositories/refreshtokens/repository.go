// Package refreshtokens provides the repository for stored session
// credentials. Tokens are addressed by SHA-256 fingerprint; the raw opaque
// value never reaches the database.
package refreshtokens

import (
	"context"
	"time"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, fingerprint string, validity time.Duration) error

	// Find looks up a refresh token by fingerprint and returns its record.
	// Implementations return common.ErrorNotFound when absent.
	Find(ctx context.Context, fingerprint string) (*models.RefreshToken, error)

	// Revoke marks the token revoked if and only if it is not already
	// revoked, reporting whether this call performed the transition. The
	// conditional write is what makes concurrent rotation single-winner.
	Revoke(ctx context.Context, fingerprint string) (bool, error)

	// RevokeAllForUser revokes every currently-valid token owned by userID
	// in one set-based update and returns the number of tokens revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
