package token

import (
	"time"

	"github.com/jrsteele09/go-indieauth-server/scopes"
)

// AccessToken is an opaque bearer credential issued at code redemption.
type AccessToken struct {
	AuthToken  string    `json:"auth_token"`  // The bearer credential itself
	IdentityID string    `json:"identity_id"` // Identity that authorized the token
	ClientID   string    `json:"client_id"`   // Client the token was issued to
	Scope      string    `json:"scope"`       // Space-delimited granted scope, never empty
	IssuedAt   time.Time `json:"issued_at"`
}

// Scopes returns the token's scope as a set.
func (t *AccessToken) Scopes() scopes.Set {
	return scopes.Parse(t.Scope)
}

// ExpiresAt is IssuedAt plus lifetime.
func (t *AccessToken) ExpiresAt(lifetime time.Duration) time.Time {
	return t.IssuedAt.Add(lifetime)
}

// Expired reports whether more than lifetime has elapsed since issue.
func (t *AccessToken) Expired(now time.Time, lifetime time.Duration) bool {
	return now.Sub(t.IssuedAt) > lifetime
}
