package httpapi

import (
	"net/http"
	"strings"
)

func sameSiteOf(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// setRefreshCookie hands the refresh token to the client through an HttpOnly
// cookie; the value never appears in a response body.
func (a *API) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(a.cfg.RefreshTokenValidityDuration.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: sameSiteOf(a.cfg.CookieSameSite),
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: sameSiteOf(a.cfg.CookieSameSite),
	})
}

// refreshTokenFromCookie returns the cookie value or "" when absent.
func (a *API) refreshTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(a.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
