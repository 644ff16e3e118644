package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetLevel(level slog.Level)
	Level() slog.Level
	SetHTTPLogging(enabled bool)
	HTTPLoggingEnabled() bool
}

// SlogLogger adapts log/slog to the Logger interface with a dynamically
// adjustable level and a toggle for per-request HTTP logging.
type SlogLogger struct {
	logger      *slog.Logger
	level       *slog.LevelVar
	httpLogging atomic.Bool
}

// New creates a logger at info level.
func New() *SlogLogger {
	return NewWithLevel(slog.LevelInfo)
}

// NewWithLevel creates a logger at the given level, writing text to stdout.
func NewWithLevel(level slog.Level) *SlogLogger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &SlogLogger{
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: levelVar,
		})),
		level: levelVar,
	}
}

// ParseLevel converts a level name (debug, info, warn, error; case
// insensitive) to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// SetLevel changes the logging level at runtime.
func (l *SlogLogger) SetLevel(level slog.Level) { l.level.Set(level) }

// Level returns the current logging level.
func (l *SlogLogger) Level() slog.Level { return l.level.Level() }

// SetHTTPLogging toggles per-request HTTP logging.
func (l *SlogLogger) SetHTTPLogging(enabled bool) { l.httpLogging.Store(enabled) }

// HTTPLoggingEnabled reports whether HTTP request logging is on.
func (l *SlogLogger) HTTPLoggingEnabled() bool { return l.httpLogging.Load() }
