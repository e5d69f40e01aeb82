package utils

import (
	"io"
	"log/slog"
	"os"

	"github.com/jmylchreest/brightnessd/internal/config"
)

// LogLevel defines log level types
type LogLevel string

// Log level constants - using values from config package
const (
	LogLevelDebug LogLevel = LogLevel(config.LogLevelDebug)
	LogLevelInfo  LogLevel = LogLevel(config.LogLevelInfo)
	LogLevelWarn  LogLevel = LogLevel(config.LogLevelWarn)
	LogLevelError LogLevel = LogLevel(config.LogLevelError)
)

// LogFormat defines log format types
type LogFormat string

// Log format constants - using values from config package
const (
	LogFormatText LogFormat = LogFormat(config.LogFormatText)
	LogFormatJSON LogFormat = LogFormat(config.LogFormatJSON)
)

// level is shared by every logger built by SetupLogger so the level can be
// changed at runtime (socket action set_log_level, PUT /api/v1/logging/level).
var level slog.LevelVar

// GetLogLevel converts a string log level to slog.Level
func GetLogLevel(level string) slog.Level {
	switch level {
	case string(LogLevelDebug):
		return slog.LevelDebug
	case string(LogLevelWarn):
		return slog.LevelWarn
	case string(LogLevelError):
		return slog.LevelError
	case string(LogLevelInfo):
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// LevelToString converts a slog.Level back to its config spelling
func LevelToString(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return string(LogLevelDebug)
	case l <= slog.LevelInfo:
		return string(LogLevelInfo)
	case l <= slog.LevelWarn:
		return string(LogLevelWarn)
	default:
		return string(LogLevelError)
	}
}

// ValidateLogLevel ensures the provided level is valid, returning a default if not
func ValidateLogLevel(level string) string {
	switch level {
	case string(LogLevelDebug), string(LogLevelInfo), string(LogLevelWarn), string(LogLevelError):
		return level
	default:
		return string(LogLevelInfo)
	}
}

// ValidateLogFormat ensures the provided format is valid, returning a default if not
func ValidateLogFormat(format string) string {
	switch format {
	case string(LogFormatText), string(LogFormatJSON):
		return format
	default:
		return string(LogFormatText)
	}
}

// SetupLogger creates a logger writing to stderr in the given format.
func SetupLogger(lvl string, format string) *slog.Logger {
	return SetupLoggerTo(os.Stderr, lvl, format)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, lvl string, format string) *slog.Logger {
	level.Set(GetLogLevel(ValidateLogLevel(lvl)))

	opts := &slog.HandlerOptions{Level: &level, AddSource: level.Level() <= slog.LevelDebug}
	if ValidateLogFormat(format) == string(LogFormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetLevel changes the level of every logger built by SetupLogger.
func SetLevel(lvl string) {
	level.Set(GetLogLevel(lvl))
}

// GetLevel returns the current runtime level.
func GetLevel() slog.Level {
	return level.Level()
}

// SetupErrorLogger creates a simple text logger for reporting errors during startup.
func SetupErrorLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SetAsDefaultLogger sets a logger as the default logger
func SetAsDefaultLogger(logger *slog.Logger) {
	slog.SetDefault(logger)
}
