package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-indieauth-server/auth"
	"github.com/jrsteele09/go-indieauth-server/identity"
	"github.com/jrsteele09/go-indieauth-server/indieauth"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/scopes"
)

// ConsentDocument is returned from GET /auth in place of a rendered consent
// page. The form it describes is posted to AuthorizeEndpoint.
type ConsentDocument struct {
	Me                string             `json:"me"`
	ClientID          string             `json:"client_id"`
	RedirectURI       string             `json:"redirect_uri"`
	State             string             `json:"state"`
	Scopes            []scopes.Described `json:"scopes"`
	Rememberable      bool               `json:"rememberable"`
	SignedIn          bool               `json:"signed_in"`
	AuthorizeEndpoint string             `json:"authorize_endpoint"`
}

// InitiateHandler starts an authorization: GET /auth?me=&client_id=&...
func (s *Server) InitiateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		params := auth.InitiateParameters{
			Me:            query.Get("me"),
			ClientID:      query.Get("client_id"),
			RedirectURI:   query.Get("redirect_uri"),
			State:         query.Get("state"),
			Scope:         query.Get("scope"),
			CodeChallenge: query.Get("code_challenge"),
			SessionID:     s.browserSessionID(w, r),
			RememberToken: cookieValue(r, rememberCookieName),
		}

		consent, err := s.auth.Initiate(r.Context(), params)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrSessionReplayDetected) {
				s.clearRememberCookie(w, r)
			}
			s.writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ConsentDocument{
			Me:                identity.CanonicalURL(consent.Identity.ProfileURL),
			ClientID:          consent.Request.ClientID,
			RedirectURI:       consent.Request.RedirectURI,
			State:             params.State,
			Scopes:            consent.Scopes,
			Rememberable:      consent.Rememberable,
			SignedIn:          consent.SignedIn,
			AuthorizeEndpoint: RouteAuthAuthorize,
		})
	}
}

// AuthorizeHandler accepts the consent form and redirects to the client with
// a code, or to the client_id when the user cancels.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, indieauth.ErrorInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		_, scopeSent := r.PostForm["scope"]
		params := auth.AuthorizeParameters{
			SessionID:     cookieValue(r, sessionCookieName),
			RememberToken: cookieValue(r, rememberCookieName),
			Cancel:        strings.EqualFold(r.PostForm.Get("commit"), "cancel"),
			ProfileURL:    r.PostForm.Get("url"),
			Password:      r.PostForm.Get("password"),
			RememberMe:    formBool(r.PostForm.Get("remember_me")),
			ScopeSelected: scopeSent || r.PostForm.Get("scope_selection") != "",
			Scope:         r.PostForm["scope"],
		}

		redirect, err := s.auth.Authorize(r.Context(), params)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrSessionReplayDetected) {
				s.clearRememberCookie(w, r)
			}
			s.writeError(w, err)
			return
		}

		if redirect.RememberToken != "" {
			s.setRememberCookie(w, r, redirect.RememberToken)
		}
		http.Redirect(w, r, redirect.Location, http.StatusSeeOther)
	}
}

// ProfileHandler exchanges a code for the profile only: POST /auth.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := redeemParameters(w, r)
		if !ok {
			return
		}
		profile, err := s.auth.RedeemForProfile(r.Context(), params)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// TokenHandler exchanges a code for an access token: POST /token.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		params, ok := redeemParameters(w, r)
		if !ok {
			return
		}
		tokenResponse, err := s.auth.RedeemForToken(r.Context(), params)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// VerifyTokenHandler lets resource servers check a bearer token: GET /token.
func (s *Server) VerifyTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, indieauth.ErrorInvalidRequest, "Missing bearer token", http.StatusBadRequest)
			return
		}
		verification, err := s.auth.VerifyToken(r.Context(), token)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, verification)
	}
}

// RevokeHandler deletes the presented bearer token.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, indieauth.ErrorInvalidRequest, "Missing bearer token", http.StatusBadRequest)
			return
		}
		if err := s.auth.RevokeToken(r.Context(), token); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LogoutHandler ends the remembered session and clears its cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), cookieValue(r, rememberCookieName)); err != nil {
			s.writeError(w, err)
			return
		}
		s.clearRememberCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func redeemParameters(w http.ResponseWriter, r *http.Request) (auth.RedeemParameters, bool) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, indieauth.ErrorInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
		return auth.RedeemParameters{}, false
	}
	return auth.RedeemParameters{
		Code:         r.PostForm.Get("code"),
		ClientID:     r.PostForm.Get("client_id"),
		RedirectURI:  r.PostForm.Get("redirect_uri"),
		CodeVerifier: r.PostForm.Get("code_verifier"),
	}, true
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
