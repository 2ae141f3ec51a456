package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
)

// InitiateParameters are received as query parameters at GET /auth.
type InitiateParameters struct {
	// Me is the profile URL the client wants the user to prove.
	// Required: Yes
	// Example: "https://operator.example/"
	Me string

	// ClientID is the URL identifying the requesting application.
	// Required: Yes
	// Example: "https://app.example"
	ClientID string

	// RedirectURI is where the authorization code will be delivered.
	// Required: Yes
	// Must match exactly when the code is redeemed.
	RedirectURI string

	// State is an opaque client value echoed back on the redirect.
	// Required: Yes (CSRF protection on the client side)
	State string

	// Scope is the space-delimited list of requested scopes.
	// Required: No. An empty scope only allows a profile exchange.
	Scope string

	// CodeChallenge is BASE64URL(SHA256(code_verifier)).
	// Required: Yes
	CodeChallenge string

	// SessionID identifies the browser session the pending request is bound to.
	SessionID string

	// RememberToken is the signed remember-me cookie, if any.
	RememberToken string
}

// validate reports the first absent required parameter.
func (p *InitiateParameters) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"client_id", p.ClientID},
		{"redirect_uri", p.RedirectURI},
		{"state", p.State},
		{"code_challenge", p.CodeChallenge},
	}
	for _, param := range required {
		if strings.TrimSpace(param.value) == "" {
			return apperrors.MissingParameter(param.name)
		}
	}
	return nil
}

// AuthorizeParameters are the fields of the consent form (POST /auth/authorize).
type AuthorizeParameters struct {
	SessionID     string
	RememberToken string

	// Cancel aborts the flow and sends the user back to the client.
	Cancel bool

	// ProfileURL and Password authenticate when no remembered session exists.
	ProfileURL string
	Password   string

	// RememberMe starts a remembered session after a password login.
	RememberMe bool

	// ScopeSelected is set when the form carried a scope selection, even an
	// empty one. Scope then holds the selected names.
	ScopeSelected bool
	Scope         []string
}

// RedeemParameters are posted by the client to exchange a code.
type RedeemParameters struct {
	Code         string
	ClientID     string
	RedirectURI  string
	CodeVerifier string
}
