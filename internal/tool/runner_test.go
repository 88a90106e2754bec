package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/testutil"
)

// mockRunner records commands and replies from a per-argv0 table.
type mockRunner struct {
	mu      sync.Mutex
	calls   []Command
	results map[string]*Result
	err     error
}

func (m *mockRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, cmd)
	if m.err != nil {
		return nil, m.err
	}
	if res, ok := m.results[strings.Join(cmd.Args, " ")]; ok {
		return res, nil
	}
	return &Result{}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Tools.Lint = "ruff check ."
	cfg.Tools.Test = "pytest -q"
	cfg.Tools.Typecheck = "mypy src"
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, cr CommandRunner) (*Runner, string) {
	t.Helper()
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	return NewRunner(cfg, g, zerolog.Nop(), WithCommandRunner(cr)), g.Root()
}

func TestParseName(t *testing.T) {
	n, err := ParseName("Lint")
	require.NoError(t, err)
	assert.Equal(t, constants.ToolLint, n)

	_, err = ParseName("format")
	require.ErrorIs(t, err, errors.ErrUnknownTool)
}

func TestRunner_Run_Success(t *testing.T) {
	m := &mockRunner{results: map[string]*Result{
		"ruff check . --fix": {Stdout: "All checks passed!\n", Duration: 15 * time.Millisecond},
	}}
	r, root := newTestRunner(t, testConfig(), m)

	o, err := r.Run(context.Background(), constants.ToolLint, Options{Args: []string{"--fix"}})
	require.NoError(t, err)
	assert.True(t, o.Success)
	assert.Equal(t, 0, o.ExitCode)
	assert.Equal(t, "lint", o.Tool)
	assert.Equal(t, int64(15), o.DurationMs)

	require.Len(t, m.calls, 1)
	assert.Equal(t, root, m.calls[0].Dir)
	assert.Equal(t, constants.DefaultMaxOutputBytes, m.calls[0].MaxOutputBytes)
}

func TestRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	m := &mockRunner{results: map[string]*Result{
		"pytest -q": {ExitCode: 1, Stdout: "1 failed, 3 passed in 0.2s\n"},
	}}
	r, _ := newTestRunner(t, testConfig(), m)

	res, err := r.Test(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, 3, res.Passed)
	assert.Equal(t, 1, res.Failed)
}

func TestRunner_Run_SpawnFailure(t *testing.T) {
	m := &mockRunner{err: fmt.Errorf("%w: %w", errors.ErrToolInvocation, testutil.ErrMockExec)}
	r, _ := newTestRunner(t, testConfig(), m)

	o, err := r.Run(context.Background(), constants.ToolTypecheck, Options{})
	require.ErrorIs(t, err, errors.ErrToolInvocation)
	assert.Nil(t, o)
}

func TestRunner_Run_UnknownTool(t *testing.T) {
	r, _ := newTestRunner(t, testConfig(), &mockRunner{})
	_, err := r.Run(context.Background(), constants.ToolName("format"), Options{})
	require.ErrorIs(t, err, errors.ErrUnknownTool)
}

func TestRunner_Run_Subdir(t *testing.T) {
	m := &mockRunner{}
	r, root := newTestRunner(t, testConfig(), m)
	require.NoError(t, os.Mkdir(filepath.Join(root, "pkg"), 0o750))

	_, err := r.Run(context.Background(), constants.ToolTest, Options{Subdir: "pkg"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pkg"), m.calls[0].Dir)

	_, err = r.Run(context.Background(), constants.ToolTest, Options{Subdir: "../elsewhere"})
	require.ErrorIs(t, err, errors.ErrPathViolation)

	_, err = r.Run(context.Background(), constants.ToolTest, Options{Subdir: "missing"})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	assert.Len(t, m.calls, 1)
}

func TestRunner_Run_FullOutput(t *testing.T) {
	m := &mockRunner{}
	r, _ := newTestRunner(t, testConfig(), m)

	_, err := r.Run(context.Background(), constants.ToolTest, Options{FullOutput: true})
	require.NoError(t, err)
	assert.Equal(t, 0, m.calls[0].MaxOutputBytes)
}

func TestRunner_Run_EmptyCommand(t *testing.T) {
	cfg := testConfig()
	cfg.Tools.Lint = "   "
	r, _ := newTestRunner(t, cfg, &mockRunner{})

	_, err := r.Run(context.Background(), constants.ToolLint, Options{})
	require.ErrorIs(t, err, errors.ErrCommandNotConfigured)
}

func TestRunner_RunModule_Args(t *testing.T) {
	m := &mockRunner{results: map[string]*Result{
		"uv run python -m your_app.main --name x": {Stdout: "hi\n"},
	}}
	cfg := testConfig()
	cfg.Module.Env = map[string]string{"B": "2", "A": "1"}
	r, root := newTestRunner(t, cfg, m)

	res, err := r.RunModule(context.Background(), "your_app.main", []string{"--name", "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, &ModuleResult{OK: true, Stdout: "hi\n"}, res)

	require.Len(t, m.calls, 1)
	call := m.calls[0]
	assert.Equal(t, root, call.Dir)
	assert.True(t, strings.HasPrefix(call.Env[0], "PYTHONPATH="+filepath.Join(root, "src")))
	assert.Equal(t, []string{"A=1", "B=2"}, call.Env[1:])
}

func TestRunner_RunModule_RejectsFlagLikeNames(t *testing.T) {
	m := &mockRunner{}
	r, _ := newTestRunner(t, testConfig(), m)

	for _, name := range []string{"", "-c", "os; rm", "../x", "a..b"} {
		_, err := r.RunModule(context.Background(), name, nil, 0)
		require.ErrorIs(t, err, errors.ErrInvalidArgument, name)
	}
	assert.Empty(t, m.calls)
}

func TestRunner_RunChecks(t *testing.T) {
	m := &mockRunner{results: map[string]*Result{
		"ruff check .": {Stdout: "Found 2 errors.\n", ExitCode: 1},
		"mypy src":     {Stdout: "Success: no issues found in 3 source files\n"},
		"pytest -q":    {Stdout: "5 passed in 0.1s\n"},
	}}
	r, _ := newTestRunner(t, testConfig(), m)

	report, err := r.RunChecks(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 2, report.Lint.Issues)
	assert.Equal(t, 0, report.Typecheck.Errors)
	assert.Equal(t, 5, report.Test.Passed)
	assert.Equal(t, 0, report.Test.Failed)

	// The test suite always runs last.
	require.Len(t, m.calls, 3)
	assert.Equal(t, "pytest", m.calls[2].Args[0])
}

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunner_RealProcess(t *testing.T) {
	requireSh(t)
	cfg := testConfig()
	cfg.Tools.Test = `sh -c "echo out; echo err >&2; exit 3"`
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(cfg, g, zerolog.Nop())

	o, err := r.Run(context.Background(), constants.ToolTest, Options{})
	require.NoError(t, err)
	assert.False(t, o.Success)
	assert.Equal(t, 3, o.ExitCode)
	assert.Equal(t, "out\n", o.Stdout)
	assert.Equal(t, "err\n", o.Stderr)
}

func TestRunner_RealProcess_Timeout(t *testing.T) {
	requireSh(t)
	cfg := testConfig()
	cfg.Tools.Test = `sh -c "sleep 10"`
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(cfg, g, zerolog.Nop())

	start := time.Now()
	o, err := r.Run(context.Background(), constants.ToolTest, Options{Timeout: 100 * time.Millisecond})
	require.ErrorIs(t, err, errors.ErrCommandTimeout)
	require.NotNil(t, o)
	assert.True(t, o.TimedOut)
	assert.False(t, o.Success)
	assert.Equal(t, constants.TimeoutExitCode, o.ExitCode)
	assert.Equal(t, constants.TimeoutStderr, o.Stderr)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunner_RealProcess_ModuleTimeout(t *testing.T) {
	requireSh(t)
	cfg := testConfig()
	cfg.Module.Command = `sh -c "sleep 10" -- `
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(cfg, g, zerolog.Nop())

	res, err := r.RunModule(context.Background(), "app", nil, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, &ModuleResult{OK: false, Exit: 124, Stderr: "Timeout", TimedOut: true}, res)
}

func TestRunner_RealProcess_MissingExecutable(t *testing.T) {
	cfg := testConfig()
	cfg.Tools.Lint = "patchbay-definitely-not-installed --check"
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(cfg, g, zerolog.Nop())

	_, err = r.Run(context.Background(), constants.ToolLint, Options{})
	require.ErrorIs(t, err, errors.ErrToolInvocation)
}

func TestExecRunner_Truncates(t *testing.T) {
	requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Args:           []string{"sh", "-c", "printf 'abcdefghij'"},
		Dir:            t.TempDir(),
		MaxOutputBytes: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd", res.Stdout)
	assert.True(t, res.Truncated)
}

func TestExecRunner_Env(t *testing.T) {
	requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Args: []string{"sh", "-c", "printf %s \"$PATCHBAY_TEST_VALUE\""},
		Dir:  t.TempDir(),
		Env:  []string{"PATCHBAY_TEST_VALUE=42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Stdout)
}

func TestExecRunner_EmptyArgs(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{})
	require.ErrorIs(t, err, errors.ErrEmptyValue)
}
