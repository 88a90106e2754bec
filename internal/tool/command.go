// Package tool runs the quality-gate commands (lint, test, typecheck) and
// project modules inside the sandbox.
//
// Commands come from configuration and are split into argv with shell
// quoting rules but are never passed to a shell, so request-supplied
// arguments such as module names cannot inject extra commands.
package tool

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"time"

	"github.com/mrz1836/patchbay/internal/errors"
)

// Command is one process invocation.
type Command struct {
	// Args is the argv; Args[0] is looked up on PATH.
	Args []string

	// Dir is the working directory.
	Dir string

	// Env holds KEY=VALUE entries added to the inherited environment.
	Env []string

	// MaxOutputBytes caps captured stdout and stderr each. 0 means no cap.
	MaxOutputBytes int
}

// Result is the raw outcome of a process that ran to completion or was killed.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// CommandRunner runs a Command. A non-zero exit is reported in the Result,
// not as an error; errors mean the process could not be run at all.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements CommandRunner with os/exec. On context expiry the
// whole process group is killed, so test runners that fork workers do not
// outlive their timeout.
type ExecRunner struct{}

// Run executes cmd and waits for it.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyValue, "empty command")
	}

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...) //#nosec G204 -- argv comes from trusted configuration
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	if cmd.MaxOutputBytes > 0 {
		c.Stdout = &limitedWriter{buf: &stdout, limit: cmd.MaxOutputBytes}
		c.Stderr = &limitedWriter{buf: &stderr, limit: cmd.MaxOutputBytes}
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}
	setupProcessGroup(c)

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			return nil, errors.Wrapf(errors.ErrToolInvocation, "failed to start %s: %v", cmd.Args[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	if cmd.MaxOutputBytes > 0 {
		res.Truncated = stdout.Len() >= cmd.MaxOutputBytes || stderr.Len() >= cmd.MaxOutputBytes
	}
	return res, nil
}

// limitedWriter stops buffering after limit bytes but reports every write
// as complete so the child never sees a broken pipe.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) <= remaining {
		return w.buf.Write(p)
	}
	if _, err := w.buf.Write(p[:remaining]); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ CommandRunner = ExecRunner{}
