// Package git is the version-control gateway for the sandbox repository.
//
// Every operation returns the git process outcome in the same shape as a
// quality-gate tool run: a command git rejects is an unsuccessful outcome,
// not an error.
package git

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/tool"
)

// Author identifies who a commit is attributed to.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether neither field is set.
func (a Author) IsZero() bool {
	return a.Name == "" && a.Email == ""
}

// String formats the author as "Name <email>".
func (a Author) String() string {
	return a.Name + " <" + a.Email + ">"
}

// StatusResult is the outcome of "git status" plus its parsed form.
// Status is nil when git failed.
type StatusResult struct {
	tool.Outcome

	Status *Status `json:"status,omitempty"`
}

// Gateway runs git in the sandbox root.
type Gateway struct {
	guard         *sandbox.Guard
	exec          tool.CommandRunner
	locker        *sandbox.Locker
	timeout       time.Duration
	defaultAuthor Author
	logger        zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCommandRunner replaces the process runner (for testing).
func WithCommandRunner(cr tool.CommandRunner) Option {
	return func(g *Gateway) {
		g.exec = cr
	}
}

// WithLocker makes Commit and RevertLast hold the sandbox lock.
func WithLocker(l *sandbox.Locker) Option {
	return func(g *Gateway) {
		g.locker = l
	}
}

// New creates a Gateway for guard's root.
func New(cfg *config.Config, guard *sandbox.Guard, logger zerolog.Logger, opts ...Option) *Gateway {
	timeout := cfg.Git.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultGitTimeout
	}
	g := &Gateway{
		guard:         guard,
		exec:          tool.ExecRunner{},
		timeout:       timeout,
		defaultAuthor: Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail},
		logger:        logger.With().Str("component", "git").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Status reports the working tree state.
func (g *Gateway) Status(ctx context.Context) (*StatusResult, error) {
	o, err := g.git(ctx, nil, "status", "--porcelain", "-uall", "--branch")
	if err != nil {
		return nil, err
	}
	res := &StatusResult{Outcome: *o}
	if o.Success {
		res.Status = parseStatus(o.Stdout)
	}
	return res, nil
}

// Commit stages exactly paths and commits them with message. With no paths
// only what is already staged is committed; nothing is ever staged
// wholesale. An empty author falls back to the configured one, then to
// git's own identity.
//
// Paths are sandbox-relative and checked by the guard before git runs.
// Nothing staged, or a message git rejects, yields an unsuccessful outcome.
func (g *Gateway) Commit(ctx context.Context, paths []string, message string, author *Author) (*tool.Outcome, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.Wrap(errors.ErrEmptyValue, "commit message cannot be empty")
	}

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		_, rel, err := g.guard.Resolve(p)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	rels = lo.Uniq(rels)

	who := g.defaultAuthor
	if author != nil && !author.IsZero() {
		who = *author
	}

	unlock, err := g.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if len(rels) > 0 {
		// -A within the pathspec also stages deletions.
		args := append([]string{"add", "-A", "--"}, rels...)
		staged, err := g.git(ctx, nil, args...)
		if err != nil || !staged.Success {
			return staged, err
		}
	}

	// A pathspec limits the commit to rels and leaves other staged entries alone.
	args := []string{"commit", "-m", message, "--cleanup=strip"}
	if len(rels) > 0 {
		args = append(append(args, "--"), rels...)
	}
	o, err := g.git(ctx, identityEnv(who), args...)
	if err != nil {
		return nil, err
	}
	if o.Success {
		g.logger.Info().Strs("paths", rels).Msg("committed")
	}
	return o, nil
}

// RevertLast is DESTRUCTIVE: it hard-resets the repository to the parent
// of HEAD, discarding the last commit and every uncommitted change in the
// working tree. It asks for no confirmation; callers must gate it.
func (g *Gateway) RevertLast(ctx context.Context) (*tool.Outcome, error) {
	unlock, err := g.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := g.git(ctx, nil, "reset", "--hard", "HEAD~1")
	if err != nil {
		return nil, err
	}
	if o.Success {
		g.logger.Warn().Msg("reverted last commit")
	}
	return o, nil
}

// git runs one git command at the sandbox root.
func (g *Gateway) git(ctx context.Context, env []string, args ...string) (*tool.Outcome, error) {
	cmd := tool.Command{
		Args: append([]string{constants.ToolGit}, args...),
		Dir:  g.guard.Root(),
		Env:  env,
	}
	o, err := tool.Invoke(ctx, g.exec, cmd, g.timeout, g.logger)
	if err != nil {
		return o, errors.Wrapf(err, "git %s", args[0])
	}
	o.Tool = constants.ToolGit
	return o, nil
}

// identityEnv sets author and committer so commits work in repositories
// without a configured user.
func identityEnv(a Author) []string {
	var env []string
	if a.Name != "" {
		env = append(env, "GIT_AUTHOR_NAME="+a.Name, "GIT_COMMITTER_NAME="+a.Name)
	}
	if a.Email != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+a.Email, "GIT_COMMITTER_EMAIL="+a.Email)
	}
	return env
}
