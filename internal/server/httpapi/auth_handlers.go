package httpapi

import (
	"fmt"
	"net/http"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userView `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		Email   string `json:"email"`
	}{
		Message: "Registration successful. Please check your email to verify your account.",
		Email:   user.Email,
	})
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		a.writeError(w, r, fmt.Errorf("%w: missing token parameter", common.ErrValidation))
		return
	}

	if err := a.auth.VerifyEmail(r.Context(), token); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully. You can now login."})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	result, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setRefreshCookie(w, result.RefreshToken)
	a.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        viewOf(result.User),
	})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	token := a.refreshTokenFromCookie(r)
	if token == "" {
		a.writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Refresh token not found in cookie"})
		return
	}

	result, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setRefreshCookie(w, result.RefreshToken)
	a.writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), a.refreshTokenFromCookie(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.clearRefreshCookie(w)
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	// Identical body for every outcome; this is the anti-enumeration contract.
	a.writeJSON(w, http.StatusOK, messageResponse{
		Message: "Si un compte existe avec cet email et qu'il est activé, un lien de réinitialisation a été envoyé.",
	})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully. Please login with your new password."})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, viewOf(userFrom(r.Context())))
}
