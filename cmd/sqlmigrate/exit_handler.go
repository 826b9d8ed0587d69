package main

import (
	"os"

	"github.com/loykin/sqlmigrate"
)

// ExitHandler provides a testable way to handle program termination
type ExitHandler interface {
	Exit(code int)
	LogFatalError(err error, msg string, keyvals ...any)
}

// DefaultExitHandler implements ExitHandler for production use
type DefaultExitHandler struct{}

// Exit terminates the program with the given exit code
func (h *DefaultExitHandler) Exit(code int) {
	os.Exit(code)
}

// LogFatalError logs a fatal error and exits the program. Configuration
// errors exit with 2, failed runs with 1.
func (h *DefaultExitHandler) LogFatalError(err error, msg string, keyvals ...any) {
	allKeyvals := append([]any{"error", err}, keyvals...)
	sqlmigrate.GetLogger().WithComponent("main").Error(msg, allKeyvals...)
	h.Exit(exitCode(err))
}

func exitCode(err error) int {
	if sqlmigrate.IsConfigError(err) {
		return 2
	}
	return 1
}

// Global exit handler (can be replaced for testing)
var exitHandler ExitHandler = &DefaultExitHandler{}
