package cmd

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns the root logger described by config.
//
// Log lines are written to stderr, as human-readable console output unless
// LOG_CONSOLE is disabled, and additionally to LOG_FILE if it is set.
func NewLogger(config *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if config.Log.Console {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	if config.Log.File != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   config.Log.File,
			MaxSize:    config.Log.MaxSizeMB,
			MaxBackups: 3,
			Compress:   true,
		})
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
