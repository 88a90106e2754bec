package tool

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
)

// moduleNameRe accepts dotted Python module names and nothing that could
// be read as an interpreter flag.
var moduleNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Options adjusts a single tool invocation.
type Options struct {
	// Subdir runs the tool in a directory below the sandbox root.
	Subdir string

	// Args are appended to the configured command.
	Args []string

	// Timeout overrides the configured tool timeout when positive.
	Timeout time.Duration

	// FullOutput disables the output cap.
	FullOutput bool
}

// Runner invokes configured tools inside the sandbox.
type Runner struct {
	exec          CommandRunner
	guard         *sandbox.Guard
	commands      map[constants.ToolName]string
	timeout       time.Duration
	maxOutput     int
	moduleCommand string
	moduleEnv     map[string]string
	logger        zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCommandRunner replaces the process runner (for testing).
func WithCommandRunner(cr CommandRunner) RunnerOption {
	return func(r *Runner) {
		r.exec = cr
	}
}

// NewRunner creates a Runner from the tools and module configuration.
func NewRunner(cfg *config.Config, guard *sandbox.Guard, logger zerolog.Logger, opts ...RunnerOption) *Runner {
	timeout := cfg.Tools.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultToolTimeout
	}
	r := &Runner{
		exec:  ExecRunner{},
		guard: guard,
		commands: map[constants.ToolName]string{
			constants.ToolLint:      cfg.Tools.Lint,
			constants.ToolTest:      cfg.Tools.Test,
			constants.ToolTypecheck: cfg.Tools.Typecheck,
		},
		timeout:       timeout,
		maxOutput:     cfg.Tools.MaxOutputBytes,
		moduleCommand: cfg.Module.Command,
		moduleEnv:     cfg.Module.Env,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseName validates a tool name from user input.
func ParseName(s string) (constants.ToolName, error) {
	for _, n := range constants.ToolNames() {
		if string(n) == strings.ToLower(strings.TrimSpace(s)) {
			return n, nil
		}
	}
	return "", errors.Wrapf(errors.ErrUnknownTool, "%q", s)
}

// Run invokes one tool. A non-zero exit is a normal, unsuccessful Outcome.
//
// Errors are operational: an unknown tool, a subdirectory outside the
// sandbox, or a process that could not start (ErrToolInvocation). On
// timeout both a TimedOut outcome and an error wrapping ErrCommandTimeout
// are returned.
func (r *Runner) Run(ctx context.Context, name constants.ToolName, opts Options) (*Outcome, error) {
	line, ok := r.commands[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownTool, "%q", name)
	}
	argv, err := splitCommand(line)
	if err != nil {
		return nil, errors.Wrapf(err, "tools.%s", name)
	}

	dir, err := r.workDir(opts.Subdir)
	if err != nil {
		return nil, err
	}

	maxOutput := r.maxOutput
	if opts.FullOutput {
		maxOutput = 0
	}
	timeout := r.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	cmd := Command{
		Args:           append(argv, opts.Args...),
		Dir:            dir,
		MaxOutputBytes: maxOutput,
	}
	o, err := r.invoke(ctx, cmd, timeout)
	if o != nil {
		o.Tool = name.String()
	}
	return o, err
}

// Lint runs the lint tool.
func (r *Runner) Lint(ctx context.Context, opts Options) (*LintResult, error) {
	o, err := r.Run(ctx, constants.ToolLint, opts)
	if o == nil {
		return nil, err
	}
	return NewLintResult(*o), err
}

// Test runs the test suite.
func (r *Runner) Test(ctx context.Context, opts Options) (*TestResult, error) {
	o, err := r.Run(ctx, constants.ToolTest, opts)
	if o == nil {
		return nil, err
	}
	return NewTestResult(*o), err
}

// Typecheck runs the type checker.
func (r *Runner) Typecheck(ctx context.Context, opts Options) (*TypecheckResult, error) {
	o, err := r.Run(ctx, constants.ToolTypecheck, opts)
	if o == nil {
		return nil, err
	}
	return NewTypecheckResult(*o), err
}

// RunModule runs "<module.command> <module> <args...>" at the sandbox root
// with <root>/src prepended to PYTHONPATH. A timeout is reported as
// exit 124 with stderr "Timeout" and no error; only a failure to start
// the process is an error.
func (r *Runner) RunModule(ctx context.Context, module string, args []string, timeout time.Duration) (*ModuleResult, error) {
	if !moduleNameRe.MatchString(module) {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "invalid module name %q", module)
	}
	prefix, err := splitCommand(r.moduleCommand)
	if err != nil {
		return nil, errors.Wrap(err, "module.command")
	}
	if timeout <= 0 {
		timeout = constants.DefaultModuleTimeout
	}

	argv := append(append(prefix, module), args...)
	cmd := Command{
		Args:           argv,
		Dir:            r.guard.Root(),
		Env:            r.moduleEnviron(),
		MaxOutputBytes: r.maxOutput,
	}

	o, err := r.invoke(ctx, cmd, timeout)
	if err != nil && !stderrors.Is(err, errors.ErrCommandTimeout) {
		return nil, err
	}
	return &ModuleResult{
		OK:       o.Success,
		Exit:     o.ExitCode,
		Stdout:   o.Stdout,
		Stderr:   o.Stderr,
		TimedOut: o.TimedOut,
	}, nil
}

// RunChecks runs lint and typecheck concurrently, then the test suite.
// Every tool runs even when an earlier one fails; the report is returned
// alongside the first operational error.
func (r *Runner) RunChecks(ctx context.Context, opts Options) (*CheckReport, error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		report CheckReport
	)

	// Each goroutine returns its own error; neither cancels the other.
	g.Go(func() error {
		res, err := r.Lint(ctx, opts)
		mu.Lock()
		report.Lint = res
		mu.Unlock()
		return err
	})
	g.Go(func() error {
		res, err := r.Typecheck(ctx, opts)
		mu.Lock()
		report.Typecheck = res
		mu.Unlock()
		return err
	})
	firstErr := g.Wait()

	testRes, testErr := r.Test(ctx, opts)
	report.Test = testRes
	if firstErr == nil {
		firstErr = testErr
	}

	report.Success = report.Lint != nil && report.Lint.Success &&
		report.Typecheck != nil && report.Typecheck.Success &&
		report.Test != nil && report.Test.Success
	return &report, firstErr
}

func (r *Runner) invoke(ctx context.Context, cmd Command, timeout time.Duration) (*Outcome, error) {
	return Invoke(ctx, r.exec, cmd, timeout, r.logger)
}

// Invoke runs cmd through cr under timeout and normalizes the result into
// an Outcome. A non-zero exit is not an error. On timeout the outcome is
// marked TimedOut and returned together with an error wrapping
// ErrCommandTimeout.
func Invoke(ctx context.Context, cr CommandRunner, cmd Command, timeout time.Duration, logger zerolog.Logger) (*Outcome, error) {
	log := logger.With().Strs("command", cmd.Args).Str("dir", cmd.Dir).Logger()
	log.Debug().Dur("timeout", timeout).Msg("running command")

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := cr.Run(cmdCtx, cmd)
	if err != nil {
		log.Error().Err(err).Msg("command could not be run")
		return nil, err
	}

	o := &Outcome{
		Command:    strings.Join(cmd.Args, " "),
		Success:    res.ExitCode == 0,
		ExitCode:   res.ExitCode,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		Truncated:  res.Truncated,
		DurationMs: res.Duration.Milliseconds(),
	}

	if stderrors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		timeoutOutcome(o)
		log.Warn().Dur("timeout", timeout).Msg("command timed out")
		return o, fmt.Errorf("%s exceeded %s: %w", cmd.Args[0], timeout, errors.ErrCommandTimeout)
	}
	if ctx.Err() != nil {
		return o, ctx.Err()
	}

	log.Debug().Int("exit_code", o.ExitCode).Int64("duration_ms", o.DurationMs).Msg("command finished")
	return o, nil
}

// workDir resolves an optional subdirectory through the guard.
func (r *Runner) workDir(subdir string) (string, error) {
	if subdir == "" {
		return r.guard.Root(), nil
	}
	abs, _, err := r.guard.Resolve(subdir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.Wrapf(errors.ErrInvalidArgument, "subdirectory %q does not exist", subdir)
	}
	return abs, nil
}

// moduleEnviron returns the extra environment for module runs, sorted for
// stable logs.
func (r *Runner) moduleEnviron() []string {
	pythonPath := filepath.Join(r.guard.Root(), "src")
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		pythonPath += string(os.PathListSeparator) + existing
	}
	env := []string{"PYTHONPATH=" + pythonPath}

	keys := make([]string, 0, len(r.moduleEnv))
	for k := range r.moduleEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+r.moduleEnv[k])
	}
	return env
}

// splitCommand splits a configured command line into argv.
func splitCommand(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "cannot parse command %q: %v", line, err)
	}
	if len(argv) == 0 {
		return nil, errors.ErrCommandNotConfigured
	}
	return argv, nil
}
