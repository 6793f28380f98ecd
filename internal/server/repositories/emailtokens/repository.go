// Package emailtokens provides the repository for single-use verification
// and password-reset tokens. Tokens are addressed by SHA-256 fingerprint.
package emailtokens

import (
	"context"
	"time"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// Repository defines persistence operations over email-delivered tokens.
type Repository interface {
	// Create stores a new token for userID with the given purpose and an
	// expiry of now+validity.
	Create(ctx context.Context, userID string, purpose string, fingerprint string, validity time.Duration) error

	// Find looks up a token by fingerprint and purpose. Implementations
	// return common.ErrorNotFound when absent.
	Find(ctx context.Context, fingerprint string, purpose string) (*models.EmailToken, error)

	// Consume marks the token consumed if and only if it is still unconsumed,
	// reporting whether this call performed the transition. Two concurrent
	// consumption attempts on the same token see exactly one true.
	Consume(ctx context.Context, fingerprint string, purpose string) (bool, error)

	// SupersedeAllForUser marks every unconsumed token of the given purpose
	// for userID as consumed, so only the most recently issued link is
	// honored.
	SupersedeAllForUser(ctx context.Context, userID string, purpose string) error
}
