package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-indieauth-server/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	env, level, file string
}

func (c testConfig) GetEnv() string      { return c.env }
func (c testConfig) GetLogLevel() string { return c.level }
func (c testConfig) GetLogFile() string  { return c.file }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, logging.ParseLevel(tt.name))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(testConfig{env: "PROD", level: "warn"}, &buf)

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Str("event", "security_incident").Msg("kept")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "security_incident", entry["event"])
	require.Equal(t, "kept", entry["message"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(testConfig{env: "dev"}, &buf)
	logger.Info().Msg("hello")

	require.Contains(t, buf.String(), "hello")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indieauth.log")
	logger := logging.New(testConfig{env: "DEV", file: path})
	logger.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, json.Valid(bytes.TrimSpace(data)))
	require.Contains(t, string(data), "to file")
}
