package sqlmigrate

import "github.com/loykin/sqlmigrate/internal/common"

// Logger is the structured logger used by migrations.
type Logger = common.Logger

type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

// NewLogger creates a text logger writing to stdout.
func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

// NewJSONLogger creates a JSON logger writing to stdout.
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

// NewColorLogger creates an ANSI-coloured logger writing to stdout.
func NewColorLogger(level LogLevel) *Logger { return common.NewColorLogger(level) }

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

// GetLogger returns the process-wide logger.
func GetLogger() *Logger { return common.GetLogger() }

// EnableMasking toggles masking of passwords, tokens and DSN credentials in log output.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }
