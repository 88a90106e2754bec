// Package constants provides centralized constant values used throughout patchbay.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by patchbay for organizing data.
const (
	// PatchbayHome is the hidden directory name where patchbay stores its data.
	// It is created in the user's home directory (or PATCHBAY_HOME).
	PatchbayHome = ".patchbay"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// LocksDir is the directory name where sandbox lock files are stored.
	LocksDir = "locks"
)

// EnvPrefix is the prefix for environment variable overrides (PATCHBAY_SANDBOX_ROOT, ...).
const EnvPrefix = "PATCHBAY"

// Timeout configurations for various operations.
const (
	// DefaultToolTimeout bounds a single lint/test/typecheck invocation.
	DefaultToolTimeout = 5 * time.Minute

	// DefaultModuleTimeout bounds a run-module invocation when the caller gives none.
	DefaultModuleTimeout = 20 * time.Second

	// DefaultProposalTimeout bounds one request to the proposal service.
	DefaultProposalTimeout = 2 * time.Minute

	// DefaultGitTimeout bounds a single git command.
	DefaultGitTimeout = 1 * time.Minute

	// DefaultLockTimeout bounds acquisition of the sandbox mutation lock.
	DefaultLockTimeout = 30 * time.Second

	// LockRetryInterval is the wait between lock attempts.
	LockRetryInterval = 50 * time.Millisecond
)

// Server defaults.
const (
	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = "127.0.0.1:3000"

	// MaxRequestBytes caps HTTP request bodies (diffs included).
	MaxRequestBytes = 8 << 20
)

// Timeout sentinel values reported for a killed process.
const (
	// TimeoutExitCode is the exit code reported when a process is killed on timeout.
	TimeoutExitCode = 124

	// TimeoutStderr is the stderr text reported when a process is killed on timeout.
	TimeoutStderr = "Timeout"
)

// DefaultMaxOutputBytes caps captured stdout/stderr on direct tool calls.
// Zero disables the cap.
const DefaultMaxOutputBytes = 4 << 20
