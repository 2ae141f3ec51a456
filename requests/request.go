package requests

import (
	"time"

	"github.com/jrsteele09/go-indieauth-server/scopes"
)

// AuthorizationRequest is a pending consent for one (identity, client) pair.
// Its Code is redeemable exactly once.
type AuthorizationRequest struct {
	Code          string    `json:"code"`                     // Single-use authorization code
	ClientID      string    `json:"client_id"`                // URL identifying the requesting application
	RedirectURI   string    `json:"redirect_uri"`             // Where the code is delivered
	Scope         string    `json:"scope,omitempty"`          // Space-delimited granted scope, narrowed during consent
	IdentityID    string    `json:"identity_id"`              // Owning identity
	CodeChallenge string    `json:"code_challenge,omitempty"` // S256 challenge supplied at initiation
	CreatedAt     time.Time `json:"created_at"`
}

// Scopes returns the request's scope as a set.
func (r *AuthorizationRequest) Scopes() scopes.Set {
	return scopes.Parse(r.Scope)
}

// Expired reports whether the request is older than ttl at now.
func (r *AuthorizationRequest) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CreatedAt) > ttl
}
