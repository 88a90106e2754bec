package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Patch pipeline
	// ===================
	{
		err: ErrDiffParse,
		info: ErrorInfo{
			Message: "The patch is not a valid unified diff.",
			Action:  "Check the file headers (---/+++) and hunk headers (@@ -l,s +l,s @@).",
		},
	},
	{
		err: ErrPathViolation,
		info: ErrorInfo{
			Message: "The patch references a path outside the sandbox.",
			Action:  "Use paths relative to the project root without '..' segments.",
		},
	},
	{
		err: ErrApplyConflict,
		info: ErrorInfo{
			Message: "The patch does not apply to the current file contents. No files were changed.",
			Action:  "Regenerate the diff against the latest version of the file.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another operation is modifying the sandbox.",
			Action:  "Wait for the other apply or commit to finish and retry.",
		},
	},

	// ===================
	// Tools
	// ===================
	{
		err: ErrCommandTimeout,
		info: ErrorInfo{
			Message: "The command timed out.",
			Action:  "Increase the timeout or investigate why the command hangs.",
		},
	},
	{
		err: ErrToolInvocation,
		info: ErrorInfo{
			Message: "The tool could not be started.",
			Action:  "Check that the executable is installed and on PATH.",
		},
	},
	{
		err: ErrUnknownTool,
		info: ErrorInfo{
			Message: "Unknown tool name.",
			Action:  "Use one of: lint, test, typecheck.",
		},
	},

	// ===================
	// Proposal source
	// ===================
	{
		err: ErrNoDiffFound,
		info: ErrorInfo{
			Message: "The proposal did not contain a fenced diff block.",
			Action:  "Rephrase the task so the model answers with a ```diff block.",
		},
	},
	{
		err: ErrExternalService,
		info: ErrorInfo{
			Message: "The proposal service could not be reached.",
			Action:  "Check proposal.endpoint and that the service is running.",
		},
	},

	// ===================
	// Git
	// ===================
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "Git operation failed. Check your repository state.",
			Action:  "Run 'git status' in the sandbox to inspect the repository.",
		},
	},

	// ===================
	// Configuration & CLI
	// ===================
	{
		err: ErrConfigInvalidSandbox,
		info: ErrorInfo{
			Message: "The sandbox configuration is invalid.",
			Action:  "Set sandbox.root (or PATCHBAY_SANDBOX_ROOT) to an existing directory.",
		},
	},
	{
		err: ErrNonInteractiveMode,
		info: ErrorInfo{
			Message: "This operation requires confirmation.",
			Action:  "Re-run with --force.",
		},
	},
	{
		err: ErrOperationCanceled,
		info: ErrorInfo{
			Message: "Operation canceled.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve the issue. The action may be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
