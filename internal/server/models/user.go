// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// User is an account record. Accounts are never hard-deleted; deactivation
// flips IsActive instead.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the local part of the user's email, which is what the
// access token carries as the name claim.
func (u *User) DisplayName() string {
	if i := strings.Index(u.Email, "@"); i >= 0 {
		return u.Email[:i]
	}
	return u.Email
}
