package mail

import (
	"context"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
)

// ConsoleSender logs outgoing emails instead of delivering them. Used in
// development when no SMTP endpoint is configured, so links stay reachable
// from the server output.
type ConsoleSender struct {
	logger logging.Logger
}

// NewConsoleSender returns a Sender writing to the given logger.
func NewConsoleSender(logger logging.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger.With("module", "mail")}
}

func (c *ConsoleSender) SendVerificationEmail(to string, verificationLink string) error {
	c.logger.Info(context.Background(), "verification email", "to", to, "link", verificationLink)
	return nil
}

func (c *ConsoleSender) SendPasswordResetEmail(to string, resetLink string) error {
	c.logger.Info(context.Background(), "password reset email", "to", to, "link", resetLink)
	return nil
}
