package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	tokenExpirationKey = "oauth.token_expiration"
	codeLengthKey      = "oauth.code_length"
	authCodeTTLKey     = "oauth.auth_code_ttl"
)

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetCodeGenerationLength() int
	GetAccessTokenExpiry() time.Duration
}

type OAuth struct {
	v *viper.Viper
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return o.v.GetDuration(authCodeTTLKey)
}

// GetCodeGenerationLength is the number of random bytes per authorization code.
func (o OAuth) GetCodeGenerationLength() int {
	return o.v.GetInt(codeLengthKey)
}

func (o OAuth) GetAccessTokenExpiry() time.Duration {
	return o.v.GetDuration(tokenExpirationKey)
}
