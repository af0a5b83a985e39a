// Package exitcodes provides centralized exit code definitions and error handling for helm-snyk.
// Exit codes are organized in ranges to categorize different types of failures:
//
//	0:     Success
//	1-9:   Input/Configuration Errors (e.g., missing token, invalid chart directory)
//	10-19: Chart Rendering Errors (e.g., helm cannot be started)
//	20-29: Runtime Errors (e.g., container runtime or I/O failures)
//
// A failing renderer propagates its own exit code instead of one of these.
package exitcodes

import (
	"errors"
	"fmt"
)

// Exit code constants organized by category
const (
	// Success (0)
	ExitSuccess = 0

	// Input/Configuration Errors (1-9)
	ExitGeneralError            = 1 // Unclassified failure
	ExitInputConfigurationError = 2 // Missing token, invalid chart directory, bad flags

	// Chart Rendering Errors (10-19)
	ExitChartLoadFailed   = 14 // Failed to load chart for in-process rendering
	ExitHelmCommandFailed = 16 // Helm command could not be executed

	// Runtime Errors (20-29)
	ExitGeneralRuntimeError = 20 // Container runtime or other system error
	ExitIOError             = 21 // IO operation error
)

// ExitCodeError wraps an error with an exit code for consistent error handling.
// Fatal pipeline errors are returned as ExitCodeError and resolved to a process
// exit status in main.
type ExitCodeError struct {
	Code int   // Exit code to return
	Err  error // Underlying error
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// IsExitCodeError checks if an error is an ExitCodeError and returns its code.
// Returns false and 0 if the error is not an ExitCodeError.
func IsExitCodeError(err error) (int, bool) {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// CodeFor returns the exit code carried by err, ExitSuccess for nil and
// ExitGeneralError for any other error.
func CodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if code, ok := IsExitCodeError(err); ok {
		return code
	}
	return ExitGeneralError
}

// CodeDescriptions maps exit codes to their human-readable descriptions
var CodeDescriptions = map[int]string{
	ExitSuccess:                 "Success",
	ExitGeneralError:            "General error",
	ExitInputConfigurationError: "General configuration error",
	ExitChartLoadFailed:         "Failed to load chart",
	ExitHelmCommandFailed:       "Helm command execution failed",
	ExitGeneralRuntimeError:     "General runtime/system error",
	ExitIOError:                 "IO operation error",
}
