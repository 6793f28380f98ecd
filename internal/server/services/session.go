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
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
)

// SessionService manages refresh tokens: issuing at login, atomic rotation
// on refresh, and revocation on logout or password reset. Multiple valid
// tokens per account are allowed, one per device.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService from server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Issue mints a fresh refresh token for userID, stores its fingerprint, and
// returns the raw value destined for the HttpOnly cookie.
func (s *SessionService) Issue(ctx context.Context, userID string) (string, error) {
	return s.issue(ctx, s.db, userID)
}

func (s *SessionService) issue(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	raw, err := common.MakeRandURLSafeString(tokenByteLength)
	if err != nil {
		return "", err
	}
	repo := s.repomanager.RefreshTokens(db)
	if err := repo.Create(ctx, userID, common.TokenFingerprint(raw), s.refreshTokenValidityDuration); err != nil {
		return "", fmt.Errorf("storing refresh token: %w", err)
	}
	return raw, nil
}

// ValidateAndRotate checks the presented token and, in one transaction,
// revokes it and issues a replacement. The revoke is a conditional update,
// so two concurrent calls with the same token value succeed exactly once;
// the loser (and every other failure mode) gets common.ErrInvalidRefreshToken.
func (s *SessionService) ValidateAndRotate(ctx context.Context, rawToken string) (string, string, error) {
	fingerprint := common.TokenFingerprint(rawToken)
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", common.ErrInvalidRefreshToken
		}
		return "", "", fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Revoked() {
		return "", "", fmt.Errorf("%w: %w", common.ErrInvalidRefreshToken, common.ErrTokenRevoked)
	}
	if token.Expired(time.Now()) {
		return "", "", fmt.Errorf("%w: %w", common.ErrInvalidRefreshToken, common.ErrTokenExpired)
	}

	var newRaw string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		won, err := s.repomanager.RefreshTokens(tx).Revoke(ctx, fingerprint)
		if err != nil {
			return fmt.Errorf("revoking refresh token: %w", err)
		}
		if !won {
			return common.ErrInvalidRefreshToken
		}
		newRaw, err = s.issue(ctx, tx, token.UserID)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return token.UserID, newRaw, nil
}

// Revoke marks the presented token revoked. Revoking an unknown or
// already-revoked token is not an error; logout must always succeed.
func (s *SessionService) Revoke(ctx context.Context, rawToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if _, err := repo.Revoke(ctx, common.TokenFingerprint(rawToken)); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every currently-valid token owned by userID in a
// single set-based update and returns how many were revoked.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).RevokeAllForUser(ctx, userID)
}
