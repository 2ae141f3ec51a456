// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 5
	defaultMaxAgeDays = 28
)

// Config selects the logger's format, level and destination.
type Config interface {
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
}

// New returns a console logger in DEV and a JSON logger elsewhere. When a
// log file is configured, output is written there with size based rotation.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, output(cfg))
}

// NewWithWriter builds the logger on top of w.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.GetEnv(), "DEV") && cfg.GetLogFile() == "" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(ParseLevel(cfg.GetLogLevel())).With().Timestamp().Logger()
}

// ParseLevel falls back to info for empty or unknown names.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func output(cfg Config) io.Writer {
	if cfg.GetLogFile() == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.GetLogFile(),
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
		Compress:   true,
	}
}
