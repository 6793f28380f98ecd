package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
)

type contextKey string

const userContextKey contextKey = "user"

// requireUser authenticates the request with a bearer access token and puts
// the resolved account on the request context.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			a.writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Not authenticated"})
			return
		}

		user, err := a.auth.CurrentUser(r.Context(), token)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// userFrom returns the authenticated account placed by requireUser.
func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}
