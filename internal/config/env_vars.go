package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	portKey     = "port"
	appNameKey  = "app_name"
	envKey      = "env"
	baseURLKey  = "base_url"
	logLevelKey = "log_level"
	logFileKey  = "log_file"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address, e.g. ":8080".
func (e EnvVars) GetPort() string {
	port := e.v.GetString(portKey)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameKey)
}

// GetEnv returns the deployment environment, upper-cased. "DEV" switches on
// console logging.
func (e EnvVars) GetEnv() string {
	env := strings.ToUpper(e.v.GetString(envKey))
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBaseURL returns the externally visible base URL of the server.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.v.GetString(baseURLKey), "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelKey)
}

func (e EnvVars) GetLogFile() string {
	return e.v.GetString(logFileKey)
}
