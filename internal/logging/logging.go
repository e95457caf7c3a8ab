// Package logging builds the process logger: zerolog console output behind log/slog.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// New returns a slog logger writing human-readable lines to w at or above level.
func New(level slog.Level, w io.Writer) *slog.Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	return slog.New(slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler())
}

// Install builds a logger with New and makes it the slog default.
func Install(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := New(level, w)
	slog.SetDefault(logger)

	return logger
}
