// Package services contains server-side business logic: the account
// lifecycle (registration through password reset), session issuing and
// rotation, grade-sheet ingestion, and note queries.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/config"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
)

// tokenByteLength is the entropy, in bytes, of every opaque token value.
const tokenByteLength = 32

// EmailTokenService issues and consumes the single-use tokens delivered by
// email (verification links and password-reset links).
type EmailTokenService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	verifyTokenValidityDuration time.Duration
	resetTokenValidityDuration  time.Duration
}

// NewEmailTokenService constructs an EmailTokenService from server config.
func NewEmailTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *EmailTokenService {
	return &EmailTokenService{
		db:                          db,
		repomanager:                 m,
		verifyTokenValidityDuration: cfg.VerifyTokenValidityDuration,
		resetTokenValidityDuration:  cfg.ResetTokenValidityDuration,
	}
}

// Issue mints a fresh token for userID and the given purpose, stores its
// fingerprint, and returns the raw value to embed in the email link. Any
// prior unconsumed token of the same purpose is superseded in the same
// transaction, so only the most recently sent link works.
func (s *EmailTokenService) Issue(ctx context.Context, userID string, purpose string) (string, error) {
	raw, err := common.MakeRandURLSafeString(tokenByteLength)
	if err != nil {
		return "", err
	}

	validity := s.verifyTokenValidityDuration
	if purpose == models.PurposeResetPassword {
		validity = s.resetTokenValidityDuration
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.EmailTokens(tx)
		if err := repo.SupersedeAllForUser(ctx, userID, purpose); err != nil {
			return fmt.Errorf("superseding prior tokens: %w", err)
		}
		if err := repo.Create(ctx, userID, purpose, common.TokenFingerprint(raw), validity); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Consume atomically uses up the token and returns the owning user id. Every
// failure mode (unknown, expired, already used, lost race) collapses into
// common.ErrInvalidActionToken so callers cannot probe token state.
func (s *EmailTokenService) Consume(ctx context.Context, rawToken string, purpose string) (string, error) {
	fingerprint := common.TokenFingerprint(rawToken)
	repo := s.repomanager.EmailTokens(s.db)

	token, err := repo.Find(ctx, fingerprint, purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidActionToken
		}
		return "", fmt.Errorf("error searching token: %w", err)
	}
	if token.Consumed() {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidActionToken, common.ErrTokenAlreadyUsed)
	}
	if token.Expired(time.Now()) {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidActionToken, common.ErrTokenExpired)
	}

	won, err := repo.Consume(ctx, fingerprint, purpose)
	if err != nil {
		return "", fmt.Errorf("error consuming token: %w", err)
	}
	if !won {
		return "", common.ErrInvalidActionToken
	}
	return token.UserID, nil
}
