package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/auth"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/config"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/mail"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/password"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login or refresh yields: the bearer
// access token for the response body and the raw refresh token destined for
// the HttpOnly cookie.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// AuthService is the single entry point for the account lifecycle:
// registration, email verification, login, token refresh, logout, and the
// forgot/reset password flow. Handlers never touch stores directly.
type AuthService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	tokens          *EmailTokenService
	sessions        *SessionService
	codec           *auth.Codec
	sender          mail.Sender
	frontendBaseURL string
	logger          logging.Logger
}

// NewAuthService wires the auth lifecycle over its collaborating services.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *EmailTokenService,
	sessions *SessionService, codec *auth.Codec, sender mail.Sender,
	cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		sessions:        sessions,
		codec:           codec,
		sender:          sender,
		frontendBaseURL: cfg.FrontendBaseURL,
		logger:          logger.With("module", "auth"),
	}
}

// NormalizeEmail lowercases and trims an address so uniqueness and lookups
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, plainPassword string) error {
	if !strings.HasSuffix(email, common.EmailDomain) {
		return fmt.Errorf("%w: email must belong to the %s domain", common.ErrValidation, common.EmailDomain)
	}
	if at := strings.Index(email, "@"); at <= 0 {
		return fmt.Errorf("%w: malformed email address", common.ErrValidation)
	}
	if len(plainPassword) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}
	return nil
}

// Register creates a student account in the unverified state and emails a
// verification link. Re-registering an email whose account never verified
// overwrites the pending record and sends a fresh link; a verified duplicate
// fails with ErrDuplicateEmail. The email send runs on a goroutine and its
// failure never rolls back the account.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := validateRegistration(email, plainPassword); err != nil {
		return nil, err
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.EmailVerified {
			return nil, common.ErrDuplicateEmail
		}
		// The first verification email may never have arrived. Replace the
		// pending record and start over.
		if err := repo.ReplacePending(ctx, user.ID, hash); err != nil {
			return nil, fmt.Errorf("replacing pending account: %w", err)
		}
		user.PasswordHash = hash
	case errors.Is(err, common.ErrorNotFound):
		user, err = repo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Role:         common.RoleStudent,
		})
		if err != nil {
			return nil, fmt.Errorf("creating account: %w", err)
		}
	default:
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	rawToken, err := s.tokens.Issue(ctx, user.ID, models.PurposeVerifyEmail)
	if err != nil {
		return nil, fmt.Errorf("issuing verification token: %w", err)
	}
	s.sendVerification(user.Email, rawToken)

	return user, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// Re-verifying an already verified account through a still-valid token is
// harmless; SetVerified is idempotent.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	userID, err := s.tokens.Consume(ctx, rawToken, models.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).SetVerified(ctx, userID); err != nil {
		return fmt.Errorf("marking account verified: %w", err)
	}
	return nil
}

// Login verifies credentials and, on success, mints an access token and
// issues a refresh token. A missing account still burns one hash comparison
// so response timing does not reveal whether the email is registered.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = password.VerifyDummy(plainPassword)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	if err := password.Verify(plainPassword, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}

	access, err := s.codec.Mint(user.ID, user.DisplayName(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}
	refresh, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh rotates the presented refresh token and mints a new access token.
// An account deactivated since the token was issued fails ErrAccountInactive.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*LoginResult, error) {
	userID, newRefresh, err := s.sessions.ValidateAndRotate(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}

	access, err := s.codec.Mint(user.ID, user.DisplayName(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}
	return &LoginResult{AccessToken: access, RefreshToken: newRefresh, User: user}, nil
}

// Logout revokes the presented refresh token. It succeeds even when the
// token is unknown, expired, or already revoked.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, rawRefreshToken)
}

// ForgotPassword starts the reset flow. The caller always gets the same nil
// outcome whether or not the email maps to an eligible account; a reset
// token is issued and mailed only for an active, verified account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching account: %w", err)
	}
	if !user.EmailVerified || !user.IsActive {
		return nil
	}

	rawToken, err := s.tokens.Issue(ctx, user.ID, models.PurposeResetPassword)
	if err != nil {
		return err
	}
	s.sendPasswordReset(user.Email, rawToken)
	return nil
}

// ResetPassword consumes a reset token, replaces the password hash, and
// revokes every refresh token the account holds. The hash replacement and
// the session sweep commit together or not at all.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}

	userID, err := s.tokens.Consume(ctx, rawToken, models.PurposeResetPassword)
	if err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetPasswordHash(ctx, userID, hash); err != nil {
			return fmt.Errorf("replacing password hash: %w", err)
		}
		revoked, err := s.repomanager.RefreshTokens(tx).RevokeAllForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("revoking sessions: %w", err)
		}
		s.logger.Info(ctx, "password reset", "user_id", userID, "sessions_revoked", revoked)
		return nil
	})
	return err
}

// CurrentUser decodes a bearer access token and returns the account it names,
// re-checking is_active against the store since claims outlive deactivation.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}
	return user, nil
}

// Mail sends are fire and forget: a slow or failing transport must not block
// or fail the request that triggered it.

func (s *AuthService) sendVerification(email, rawToken string) {
	link := mail.VerificationLink(s.frontendBaseURL, rawToken)
	go func() {
		if err := s.sender.SendVerificationEmail(email, link); err != nil {
			s.logger.Error(context.Background(), "sending verification email", "to", email, "error", err)
		}
	}()
}

func (s *AuthService) sendPasswordReset(email, rawToken string) {
	link := mail.ResetLink(s.frontendBaseURL, rawToken)
	go func() {
		if err := s.sender.SendPasswordResetEmail(email, link); err != nil {
			s.logger.Error(context.Background(), "sending password reset email", "to", email, "error", err)
		}
	}()
}
