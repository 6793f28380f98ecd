package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

// userView is the public account representation; it never carries the
// password hash.
type userView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func viewOf(u *models.User) userView {
	return userView{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error(context.Background(), "encoding response", "error", err)
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// writeError maps a domain error onto a status code and a fixed message.
// Internal distinctions (which of several reasons a token is invalid, store
// details) are deliberately not exposed.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var detail string

	switch {
	case errors.Is(err, common.ErrValidation):
		status, detail = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrDuplicateEmail):
		status, detail = http.StatusBadRequest, "Email already registered. Please login instead."
	case errors.Is(err, common.ErrInvalidActionToken):
		status, detail = http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, common.ErrInvalidCredentials):
		status, detail = http.StatusUnauthorized, "Incorrect email or password"
	case errors.Is(err, common.ErrInvalidRefreshToken):
		status, detail = http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		w.Header().Set("WWW-Authenticate", "Bearer")
		status, detail = http.StatusUnauthorized, "Invalid or expired access token"
	case errors.Is(err, common.ErrEmailNotVerified):
		status, detail = http.StatusForbidden, "Email not verified. Please check your inbox."
	case errors.Is(err, common.ErrAccountInactive):
		status, detail = http.StatusForbidden, "Account is disabled"
	case errors.Is(err, common.ErrorNotFound):
		status, detail = http.StatusNotFound, "Not found"
	default:
		a.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		status, detail = http.StatusInternalServerError, "Internal server error"
	}

	a.writeJSON(w, status, errorBody{Detail: detail})
}

// decodeBody reads a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}
	return nil
}
