package testutil

import "errors"

// Mock errors for simulating failures in tests.
var (
	// ErrMockNetwork simulates a transport failure.
	ErrMockNetwork = errors.New("network error")

	// ErrMockExec simulates a process that could not be started.
	ErrMockExec = errors.New("exec failed")
)
