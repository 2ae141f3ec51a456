package sessions

import (
	"crypto/subtle"
	"time"
)

// Session is a signed-in record for an identity. A browser holding a valid
// remember token for it skips the password step.
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PendingAuthorization is the echo state of one in-flight authorization
// request, keyed by the browser session that started it.
type PendingAuthorization struct {
	SessionID     string    `json:"session_id"`  // Browser session identifier
	IdentityID    string    `json:"identity_id"` // Identity the request was created for
	ClientID      string    `json:"client_id"`
	State         string    `json:"state"`
	CodeChallenge string    `json:"code_challenge"`
	CreatedAt     time.Time `json:"created_at"`
}

// Matches reports whether a stored request is the one this browser
// initiated. The challenge is compared in constant time.
func (p *PendingAuthorization) Matches(clientID, codeChallenge string) bool {
	if p.ClientID != clientID {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p.CodeChallenge), []byte(codeChallenge)) == 1
}
