// Package pkce verifies proof-of-possession code challenges (RFC 7636, S256).
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// S256Challenge computes BASE64URL(SHA256(verifier)) without padding.
func S256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Verify reports whether verifier matches the stored S256 challenge.
//
// An empty storedChallenge verifies successfully regardless of verifier.
// This keeps requests created without a challenge redeemable; callers that
// want PKCE to be mandatory must reject empty challenges themselves.
func Verify(storedChallenge, verifier string) bool {
	if storedChallenge == "" {
		return true
	}
	computed := S256Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}
