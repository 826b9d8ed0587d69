package common

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger provides a centralized logging interface for sqlmigrate
type Logger struct {
	*slog.Logger
	level  LogLevel
	masker *Masker
}

// NewLogger creates a new structured text logger writing to stdout
func NewLogger(level LogLevel) *Logger {
	return NewTextLoggerTo(os.Stdout, level)
}

// NewTextLoggerTo creates a structured text logger writing to w
func NewTextLoggerTo(w io.Writer, level LogLevel) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.ToSlogLevel(),
		ReplaceAttr: maskReplaceAttr(globalMasker),
	}
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, opts)), level: level, masker: globalMasker}
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.ToSlogLevel(),
		ReplaceAttr: maskReplaceAttr(globalMasker),
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, opts)), level: level, masker: globalMasker}
}

// NewColorLogger creates a logger with ANSI colored output when stdout is a terminal
func NewColorLogger(level LogLevel) *Logger {
	h := NewColorHandler(os.Stdout, &slog.HandlerOptions{Level: level.ToSlogLevel()})
	return &Logger{Logger: slog.New(h), level: level, masker: h.masker}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level, masker: l.masker}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return l.with("store", storeType)
}

// WithRun returns a logger tagged with the id of a migration run
func (l *Logger) WithRun(runID string) *Logger {
	return l.with("run", runID)
}

// WithScript returns a logger with migration script context
func (l *Logger) WithScript(id string) *Logger {
	return l.with("script", id)
}

// maskReplaceAttr plugs the masker into the standard slog handlers.
// Errors are rendered to their message so credentials inside them get masked.
func maskReplaceAttr(m *Masker) func(groups []string, a slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if m == nil || !m.IsEnabled() {
			return a
		}
		switch a.Value.Kind() {
		case slog.KindString, slog.KindAny:
		default:
			return a
		}
		if masked, ok := m.MaskValue(a.Key, a.Value.Any()).(string); ok {
			a.Value = slog.StringValue(masked)
		}
		return a
	}
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}

// LogWarn logs warning message
func LogWarn(msg string, attrs ...any) {
	defaultLogger.Warn(msg, attrs...)
}
