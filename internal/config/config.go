// Package config loads server settings from defaults, an optional config
// file, a .env file and INDIEAUTH_* environment variables, in increasing
// order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "INDIEAUTH"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StorageConfig
	IdentityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetLogFile() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Storage
	Identity
}

// Option configures how New loads settings.
type Option func(*loader)

type loader struct {
	configFile string
	dotEnvFile []string
}

// WithConfigFile reads settings from a yaml/json/toml file.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithDotEnv loads the given .env files instead of ./.env.
func WithDotEnv(paths ...string) Option {
	return func(l *loader) {
		l.dotEnvFile = paths
	}
}

func New(options ...Option) (Config, error) {
	l := &loader{}
	for _, opt := range options {
		opt(l)
	}

	if err := loadDotEnv(l.dotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "[config.New] reading %s", l.configFile)
		}
	}

	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Cors:     Cors{v: v},
		OAuth:    OAuth{v: v},
		Security: Security{v: v},
		Storage:  Storage{v: v},
		Identity: Identity{v: v},
	}, nil
}

// loadDotEnv never overrides variables already set in the environment. A
// missing default .env file is not an error.
func loadDotEnv(paths []string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "[config.loadDotEnv] .env")
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Wrap(err, "[config.loadDotEnv]")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(portKey, "8080")
	v.SetDefault(appNameKey, "Go IndieAuth Server")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(baseURLKey, "http://localhost:8080")
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logFileKey, "")

	v.SetDefault(allowedOriginsKey, []string{})

	v.SetDefault(tokenExpirationKey, "672h")
	v.SetDefault(codeLengthKey, 20)
	v.SetDefault(authCodeTTLKey, "10m")

	v.SetDefault(requirePKCEKey, false)
	v.SetDefault(localSessionLifetimeKey, "0s")
	v.SetDefault(sessionSecretKey, "")
	v.SetDefault(loginRateKey, 10)
	v.SetDefault(loginBurstKey, 5)

	v.SetDefault(storageDriverKey, StorageDriverMemory)
	v.SetDefault(redisAddrKey, "localhost:6379")
	v.SetDefault(redisUsernameKey, "")
	v.SetDefault(redisPasswordKey, "")
	v.SetDefault(redisDBKey, 0)
	v.SetDefault(redisKeyPrefixKey, "indieauth:")
	v.SetDefault(postgresDSNKey, "")
	v.SetDefault(postgresAutoMigrateKey, true)

	v.SetDefault(identityProfileURLKey, "")
	v.SetDefault(identityNameKey, "")
	v.SetDefault(identityURLKey, "")
	v.SetDefault(identityPhotoKey, "")
	v.SetDefault(identityEmailKey, "")
	v.SetDefault(identityPasswordHashKey, "")
}
