package models

import "time"

// Email token purposes. A token minted for one purpose is never accepted for
// the other.
const (
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

// EmailToken is a single-use, time-boxed credential delivered out of band
// (email verification link or password reset link). Stored by fingerprint,
// like refresh tokens.
type EmailToken struct {
	ID          string
	UserID      string
	Purpose     string
	Fingerprint string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
}

// Expired reports whether the token's lifetime has elapsed at now.
func (t *EmailToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Consumed reports whether the token has already been used or superseded.
func (t *EmailToken) Consumed() bool {
	return t.ConsumedAt != nil
}
