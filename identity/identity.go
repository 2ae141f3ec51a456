package identity

import (
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Identity is the subject this server vouches for. The authorization core
// only ever reads it.
type Identity struct {
	ID           string `json:"id"`              // Stable identifier used as the storage key
	ProfileURL   string `json:"profile_url"`     // Canonical "me" URL
	ProfilePath  string `json:"profile_path"`    // Path component of ProfileURL, used by the password form
	Name         string `json:"name,omitempty"`  // Display name
	URL          string `json:"url,omitempty"`   // Home page published in the profile
	Photo        string `json:"photo,omitempty"` // Avatar URL
	Email        string `json:"email,omitempty"` // Only disclosed under the email scope
	PasswordHash string `json:"-"`               // bcrypt hash - never serialize
}

// CheckPassword compares password against the identity's bcrypt hash.
func (i *Identity) CheckPassword(password string) bool {
	return CheckPasswordHash(password, i.PasswordHash)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CanonicalURL normalises a profile URL for comparison: lower-case scheme
// and host, and a "/" path when none is given.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String()
}

// ProfilePath extracts the path used to look an identity up from the
// password form. Unparseable input yields "".
func ProfilePath(profileURL string) string {
	u, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
