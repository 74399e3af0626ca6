// Package events provides structured logging for all driveline components.
package events

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger behind a small field-chaining API so callers
// never depend on the backend directly.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a logger writing to stdout. Level is one of debug, info,
// warn, error; format is "json" or "console".
func NewLogger(level, format string) *Logger {
	return newLogger(level, format, os.Stdout)
}

// NewTestLogger creates a logger for tests, writing to the given sink.
func NewTestLogger(output io.Writer) *Logger {
	return newLogger("debug", "json", output)
}

func newLogger(level, format string, output io.Writer) *Logger {
	lvl := parseLevel(level)

	if format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

// Info logs at info level.
func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

// Error logs at error level.
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
