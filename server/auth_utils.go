package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// sessionCookieName carries the browser session a pending authorization is bound to.
	sessionCookieName = "indieauth_session"
	// rememberCookieName carries the signed remember-me token.
	rememberCookieName = "indieauth_remember"
)

// browserSessionID returns the browser session from its cookie, issuing a
// new one when absent.
func (s *Server) browserSessionID(w http.ResponseWriter, r *http.Request) string {
	if sessionID := cookieValue(r, sessionCookieName); sessionID != "" {
		return sessionID
	}
	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

func (s *Server) setRememberCookie(w http.ResponseWriter, r *http.Request, rememberToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    rememberToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.rememberLifetime.Seconds()),
	})
}

func (s *Server) clearRememberCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// formBool accepts the values HTML checkboxes and clients commonly send.
func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
