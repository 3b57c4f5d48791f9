package utils

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	l *log.Logger
}

// NewLogger creates a Logger writing colored console lines to stderr at the
// given level ("debug", "info", "warn", "error").
func NewLogger(level string) *Logger {
	if level == "" {
		level = "info"
	}
	return &Logger{l: &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "2006-01-02 15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: true,
		},
	}}
}

// NewTestLogger returns a Logger that discards everything.
func NewTestLogger() *Logger {
	return &Logger{l: &log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}}
}

func (l *Logger) Info(format string, args ...any) {
	l.l.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.l.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.l.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.l.Debug().Msgf(format, args...)
}

// Printf lets the Logger stand in for printf-style loggers such as cron's.
func (l *Logger) Printf(format string, args ...any) {
	l.l.Info().Msgf(format, args...)
}
