package config

import "github.com/spf13/viper"

const (
	identityProfileURLKey   = "identity.profile_url"
	identityNameKey         = "identity.name"
	identityURLKey          = "identity.url"
	identityPhotoKey        = "identity.photo"
	identityEmailKey        = "identity.email"
	identityPasswordHashKey = "identity.password_hash"
	scopeDescriptionsKey    = "scopes.descriptions"
)

// IdentityConfig describes the operator identity seeded at startup and the
// consent text shown for each scope.
type IdentityConfig interface {
	GetIdentityProfileURL() string
	GetIdentityName() string
	GetIdentityURL() string
	GetIdentityPhoto() string
	GetIdentityEmail() string
	GetIdentityPasswordHash() string
	GetScopeDescriptions() map[string]string
}

type Identity struct {
	v *viper.Viper
}

var _ IdentityConfig = Identity{}

func (i Identity) GetIdentityProfileURL() string {
	return i.v.GetString(identityProfileURLKey)
}

func (i Identity) GetIdentityName() string {
	return i.v.GetString(identityNameKey)
}

func (i Identity) GetIdentityURL() string {
	return i.v.GetString(identityURLKey)
}

func (i Identity) GetIdentityPhoto() string {
	return i.v.GetString(identityPhotoKey)
}

func (i Identity) GetIdentityEmail() string {
	return i.v.GetString(identityEmailKey)
}

// GetIdentityPasswordHash returns the operator's bcrypt hash.
func (i Identity) GetIdentityPasswordHash() string {
	return i.v.GetString(identityPasswordHashKey)
}

// GetScopeDescriptions returns overrides for the built-in consent text.
// Only a config file can set them.
func (i Identity) GetScopeDescriptions() map[string]string {
	return i.v.GetStringMapString(scopeDescriptionsKey)
}
