package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/tool"
)

type mockRunner struct {
	calls [][]string
	envs  [][]string
	reply func(args []string) *tool.Result
}

func (m *mockRunner) Run(_ context.Context, cmd tool.Command) (*tool.Result, error) {
	m.calls = append(m.calls, cmd.Args)
	m.envs = append(m.envs, cmd.Env)
	if m.reply != nil {
		return m.reply(cmd.Args), nil
	}
	return &tool.Result{}, nil
}

func newMockGateway(t *testing.T, m *mockRunner) (*Gateway, string) {
	t.Helper()
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.Git.AuthorName = "Config Bot"
	cfg.Git.AuthorEmail = "bot@example.com"
	return New(cfg, g, zerolog.Nop(), WithCommandRunner(m)), g.Root()
}

func TestCommit_StagesExactlyGivenPaths(t *testing.T) {
	m := &mockRunner{}
	gw, _ := newMockGateway(t, m)

	o, err := gw.Commit(context.Background(), []string{"b/src/app.py", "src/app.py", "README.md"}, "fix bug", nil)
	require.NoError(t, err)
	assert.True(t, o.Success)
	assert.Equal(t, "git", o.Tool)

	require.Len(t, m.calls, 2)
	assert.Equal(t, []string{"git", "add", "-A", "--", "src/app.py", "README.md"}, m.calls[0])
	assert.Equal(t, []string{"git", "commit", "-m", "fix bug", "--cleanup=strip", "--", "src/app.py", "README.md"}, m.calls[1])
	assert.Contains(t, m.envs[1], "GIT_AUTHOR_NAME=Config Bot")
	assert.Contains(t, m.envs[1], "GIT_COMMITTER_EMAIL=bot@example.com")
}

func TestCommit_NoPathsCommitsStagedOnly(t *testing.T) {
	m := &mockRunner{}
	gw, _ := newMockGateway(t, m)

	_, err := gw.Commit(context.Background(), nil, "msg", &Author{Name: "Req", Email: "req@example.com"})
	require.NoError(t, err)
	require.Len(t, m.calls, 1)
	assert.Equal(t, []string{"git", "commit", "-m", "msg", "--cleanup=strip"}, m.calls[0])
	assert.Contains(t, m.envs[0], "GIT_AUTHOR_NAME=Req")
}

func TestCommit_StageFailureStops(t *testing.T) {
	m := &mockRunner{reply: func(args []string) *tool.Result {
		if args[1] == "add" {
			return &tool.Result{ExitCode: 128, Stderr: "fatal: pathspec"}
		}
		return &tool.Result{}
	}}
	gw, _ := newMockGateway(t, m)

	o, err := gw.Commit(context.Background(), []string{"nope.txt"}, "msg", nil)
	require.NoError(t, err)
	assert.False(t, o.Success)
	assert.Equal(t, 128, o.ExitCode)
	assert.Len(t, m.calls, 1)
}

func TestCommit_Validation(t *testing.T) {
	m := &mockRunner{}
	gw, _ := newMockGateway(t, m)

	_, err := gw.Commit(context.Background(), []string{"a.txt"}, "  ", nil)
	require.ErrorIs(t, err, errors.ErrEmptyValue)

	_, err = gw.Commit(context.Background(), []string{"../escape.txt"}, "msg", nil)
	require.ErrorIs(t, err, errors.ErrPathViolation)

	assert.Empty(t, m.calls)
}

func TestRevertLast_Command(t *testing.T) {
	m := &mockRunner{}
	gw, _ := newMockGateway(t, m)

	_, err := gw.RevertLast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"git", "reset", "--hard", "HEAD~1"}}, m.calls)
}

func TestStatus_FailureHasNoParsedStatus(t *testing.T) {
	m := &mockRunner{reply: func([]string) *tool.Result {
		return &tool.Result{ExitCode: 128, Stderr: "fatal: not a git repository"}
	}}
	gw, _ := newMockGateway(t, m)

	res, err := gw.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Status)
}

// Integration tests against a real repository.

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func initRepo(t *testing.T) (*Gateway, string) {
	t.Helper()
	requireGit(t)
	g, err := sandbox.New(t.TempDir())
	require.NoError(t, err)

	cmd := exec.CommandContext(context.Background(), "git", "init", "-q")
	cmd.Dir = g.Root()
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	cfg := config.DefaultConfig()
	cfg.Git.AuthorName = "Test"
	cfg.Git.AuthorEmail = "test@example.com"
	return New(cfg, g, zerolog.Nop(), WithLocker(sandbox.NewLocker("", 0))), g.Root()
}

func write(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o600))
}

func TestGateway_Integration(t *testing.T) {
	gw, root := initRepo(t)
	ctx := context.Background()

	write(t, root, "a.txt", "a\n")
	write(t, root, "b.txt", "b\n")

	o, err := gw.Commit(ctx, []string{"a.txt"}, "first", nil)
	require.NoError(t, err)
	require.True(t, o.Success, o.Stderr)

	st, err := gw.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Success)
	assert.Equal(t, []string{"b.txt"}, st.Status.Untracked, "unlisted files stay unstaged")

	o, err = gw.Commit(ctx, nil, "nothing staged", nil)
	require.NoError(t, err)
	assert.False(t, o.Success)

	write(t, root, "a.txt", "a2\n")
	o, err = gw.Commit(ctx, []string{"a.txt", "b.txt"}, "second", nil)
	require.NoError(t, err)
	require.True(t, o.Success, o.Stderr)

	o, err = gw.RevertLast(ctx)
	require.NoError(t, err)
	require.True(t, o.Success, o.Stderr)

	data, err := os.ReadFile(filepath.Join(root, "a.txt")) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
	_, err = os.Stat(filepath.Join(root, "b.txt"))
	assert.True(t, os.IsNotExist(err))

	o, err = gw.RevertLast(ctx)
	require.NoError(t, err)
	assert.False(t, o.Success, "no parent commit to reset to")
	assert.True(t, strings.TrimSpace(o.Stderr) != "")
}

func gitOut(t *testing.T, root string, args ...string) string {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

func TestCommit_LeavesOtherStagedFilesAlone(t *testing.T) {
	gw, root := initRepo(t)
	ctx := context.Background()

	write(t, root, "README.md", "seed\n")
	o, err := gw.Commit(ctx, []string{"README.md"}, "seed", nil)
	require.NoError(t, err)
	require.True(t, o.Success, o.Stderr)

	write(t, root, "app.py", "print(1)\n")
	write(t, root, "unrelated.txt", "wip\n")
	gitOut(t, root, "add", "unrelated.txt")

	o, err = gw.Commit(ctx, []string{"app.py"}, "add app", nil)
	require.NoError(t, err)
	require.True(t, o.Success, o.Stderr)

	committed := strings.Fields(gitOut(t, root, "show", "--name-only", "--format=", "HEAD"))
	assert.Equal(t, []string{"app.py"}, committed)

	staged := strings.Fields(gitOut(t, root, "diff", "--cached", "--name-only"))
	assert.Equal(t, []string{"unrelated.txt"}, staged)
}
