// Package indieauth holds the JSON documents exchanged with IndieAuth
// clients and the error codes reported to them.
package indieauth

// TokenTypeBearer is the only token type this server issues.
const TokenTypeBearer = "Bearer"

// Error codes returned in ErrorResponse.Error.
const (
	// ErrorInvalidRequest reports a missing or malformed parameter.
	ErrorInvalidRequest = "invalid_request"

	// ErrorInvalidUser reports a "me" URL or profile path that resolves to no identity.
	ErrorInvalidUser = "invalid_user"

	// ErrorInvalidPassword reports a credential mismatch on the password form.
	ErrorInvalidPassword = "invalid_password"

	// ErrorInvalidGrant covers every failure on the code redemption path.
	// Unknown code, expired code, client or redirect mismatch and a failed
	// PKCE check are indistinguishable to the client.
	ErrorInvalidGrant = "invalid_grant"

	// ErrorInvalidToken reports an expired bearer token.
	ErrorInvalidToken = "invalid_token"

	// ErrorAccessDenied is returned when an authorization is refused,
	// including after a detected session replay.
	ErrorAccessDenied = "access_denied"

	// ErrorTemporarilyUnavailable reports throttled password attempts.
	ErrorTemporarilyUnavailable = "temporarily_unavailable"

	// ErrorServerError reports an unexpected internal failure.
	ErrorServerError = "server_error"
)

// ProfileInfo is the profile sub-object disclosed under the "profile" scope.
// Unset fields are omitted, never sent as null or "".
type ProfileInfo struct {
	// Name is the identity's display name.
	Name string `json:"name,omitempty"`

	// URL is the identity's home page.
	URL string `json:"url,omitempty"`

	// Photo is an avatar URL.
	Photo string `json:"photo,omitempty"`

	// Email is only present when both "profile" and "email" were granted.
	Email string `json:"email,omitempty"`
}

// Profile is the response to a profile-only code exchange (POST /auth) and
// is embedded in TokenResponse.
type Profile struct {
	// Me is the canonical profile URL of the authenticated identity.
	// Always present.
	Me string `json:"me"`

	// Profile is nil unless the "profile" scope was granted.
	Profile *ProfileInfo `json:"profile,omitempty"`
}

// TokenResponse is returned from the token endpoint after a successful code
// redemption.
type TokenResponse struct {
	// AccessToken is the opaque bearer credential.
	// Usage: "Authorization: Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// Scope is the space-delimited scope granted to the token. Never empty.
	Scope string `json:"scope"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	Profile
}

// TokenVerification is returned when a resource server checks a bearer token
// (GET /token).
type TokenVerification struct {
	Me       string `json:"me"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// ErrorResponse is the body of every error returned to clients.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
