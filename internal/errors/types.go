package errors

import (
	"errors"
	"fmt"
)

// PathViolationError reports a path that escapes the sandbox root.
// File is the diff entry (or request field) the path came from, when known.
type PathViolationError struct {
	Path string
	File string
}

// Error implements the error interface.
func (e *PathViolationError) Error() string {
	if e.File != "" && e.File != e.Path {
		return fmt.Sprintf("path violation: %q (from %q) resolves outside the sandbox", e.Path, e.File)
	}
	return fmt.Sprintf("path violation: %q resolves outside the sandbox", e.Path)
}

// Unwrap lets errors.Is match ErrPathViolation.
func (e *PathViolationError) Unwrap() error {
	return ErrPathViolation
}

// ApplyConflictError identifies the first file whose hunks did not apply cleanly.
type ApplyConflictError struct {
	File   string
	Hunk   int // 1-based index of the failing hunk within the file
	Reason string
}

// Error implements the error interface.
func (e *ApplyConflictError) Error() string {
	msg := fmt.Sprintf("apply conflict in %s", e.File)
	if e.Hunk > 0 {
		msg += fmt.Sprintf(" (hunk %d)", e.Hunk)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap lets errors.Is match ErrApplyConflict.
func (e *ApplyConflictError) Unwrap() error {
	return ErrApplyConflict
}

// ParseError describes malformed diff input. Line is 1-based; 0 means
// the input as a whole was rejected.
type ParseError struct {
	Line   int
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("diff parse error at line %d: %s", e.Line, e.Reason)
	}
	return "diff parse error: " + e.Reason
}

// Unwrap lets errors.Is match ErrDiffParse.
func (e *ParseError) Unwrap() error {
	return ErrDiffParse
}

// OffendingFile extracts the file named by a path violation or apply conflict.
// Returns an empty string for any other error.
func OffendingFile(err error) string {
	var pv *PathViolationError
	if errors.As(err, &pv) {
		if pv.File != "" {
			return pv.File
		}
		return pv.Path
	}
	var ac *ApplyConflictError
	if errors.As(err, &ac) {
		return ac.File
	}
	return ""
}

// Kind returns a stable, machine-readable category name for err,
// used in API responses and run records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDiffParse):
		return "DiffParseError"
	case errors.Is(err, ErrPathViolation):
		return "PathViolation"
	case errors.Is(err, ErrApplyConflict):
		return "ApplyConflict"
	case errors.Is(err, ErrToolInvocation), errors.Is(err, ErrCommandTimeout):
		return "ToolInvocationError"
	case errors.Is(err, ErrExternalService), errors.Is(err, ErrNoDiffFound):
		return "ExternalServiceError"
	default:
		return "Error"
	}
}
