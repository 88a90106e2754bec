// Package errors provides centralized error handling for patchbay.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrDiffParse indicates that unified-diff text could not be parsed:
	// malformed headers, non-integer hunk ranges, or empty input.
	ErrDiffParse = errors.New("diff parse error")

	// ErrPathViolation indicates that a path resolves outside the sandbox root.
	// It is always fatal to the enclosing operation.
	ErrPathViolation = errors.New("path violation")

	// ErrApplyConflict indicates that a hunk's context could not be located
	// in the current content of the target file.
	ErrApplyConflict = errors.New("apply conflict")

	// ErrToolInvocation indicates that an external command could not be run:
	// missing executable, spawn failure, or timeout.
	// A command that runs and exits non-zero is NOT an invocation error.
	ErrToolInvocation = errors.New("tool invocation failed")

	// ErrExternalService indicates that the proposal source was unreachable
	// or returned no usable diff.
	ErrExternalService = errors.New("external service error")

	// ErrNoDiffFound indicates that a proposal response contained no fenced diff block.
	ErrNoDiffFound = errors.New("no diff found in proposal")

	// ErrCommandTimeout indicates a command exceeded its timeout duration.
	ErrCommandTimeout = errors.New("command timeout exceeded")

	// ErrGitOperation indicates that a git command failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrUnknownTool indicates that an unknown tool name was specified.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLockTimeout indicates the sandbox lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidSandbox indicates an invalid sandbox configuration value.
	ErrConfigInvalidSandbox = errors.New("invalid sandbox configuration")

	// ErrConfigInvalidTools indicates an invalid tools configuration value.
	ErrConfigInvalidTools = errors.New("invalid tools configuration")

	// ErrConfigInvalidProposal indicates an invalid proposal configuration value.
	ErrConfigInvalidProposal = errors.New("invalid proposal configuration")

	// ErrConfigInvalidServer indicates an invalid server configuration value.
	ErrConfigInvalidServer = errors.New("invalid server configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the force flag.
	ErrNonInteractiveMode = errors.New("use --force in non-interactive mode")

	// ErrOperationCanceled indicates the user canceled an operation.
	ErrOperationCanceled = errors.New("operation canceled by user")

	// ErrCommandNotConfigured indicates a tool or module command string is empty.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrInvalidTransition indicates an agent run tried to move between
	// states the run state machine does not connect.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
