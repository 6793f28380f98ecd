// Package mail defines the outbound email contract and its SMTP and console
// implementations. Senders receive fully built links; they never see raw
// token internals beyond the query parameter they are asked to deliver.
package mail

import "fmt"

// Sender delivers account-lifecycle emails. Implementations must be safe for
// concurrent use; callers send on a goroutine and only log failures.
type Sender interface {
	SendVerificationEmail(to string, verificationLink string) error
	SendPasswordResetEmail(to string, resetLink string) error
}

// VerificationLink builds the frontend URL a user follows to confirm their
// email address.
func VerificationLink(frontendBaseURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", frontendBaseURL, token)
}

// ResetLink builds the frontend URL a user follows to choose a new password.
func ResetLink(frontendBaseURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", frontendBaseURL, token)
}
