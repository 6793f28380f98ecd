package models

import "time"

// RefreshToken is a stored session credential. Only the SHA-256 fingerprint
// of the opaque value is persisted; the raw token lives solely in the
// client's cookie.
type RefreshToken struct {
	ID          string
	UserID      string
	Fingerprint string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

// Expired reports whether the token's lifetime has elapsed at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Revoked reports whether the token has been explicitly revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}
