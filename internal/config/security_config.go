package config

import (
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const (
	requirePKCEKey          = "security.require_pkce"
	localSessionLifetimeKey = "security.local_session_lifetime"
	sessionSecretKey        = "security.session_secret"
	loginRateKey            = "security.login_rate"
	loginBurstKey           = "security.login_burst"
)

type SecurityConfig interface {
	GetRequirePKCE() bool
	GetLocalSessionLifetime() time.Duration
	GetSessionSecret() []byte
	GetLoginRate() rate.Limit
	GetLoginBurst() int
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

// GetRequirePKCE rejects redemptions of requests that carry no code challenge.
func (s Security) GetRequirePKCE() bool {
	return s.v.GetBool(requirePKCEKey)
}

// GetLocalSessionLifetime is how long "remember me" keeps a browser signed
// in. Zero disables remembered sessions.
func (s Security) GetLocalSessionLifetime() time.Duration {
	return s.v.GetDuration(localSessionLifetimeKey)
}

// GetSessionSecret signs remember-me tokens. Empty means a random secret per
// process, so sessions do not survive a restart.
func (s Security) GetSessionSecret() []byte {
	return []byte(s.v.GetString(sessionSecretKey))
}

// GetLoginRate converts security.login_rate, in password attempts per
// minute, into a limiter rate. Zero or less disables throttling.
func (s Security) GetLoginRate() rate.Limit {
	perMinute := s.v.GetFloat64(loginRateKey)
	if perMinute <= 0 {
		return rate.Inf
	}
	return rate.Limit(perMinute / 60)
}

func (s Security) GetLoginBurst() int {
	return s.v.GetInt(loginBurstKey)
}
