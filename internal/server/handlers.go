package server

import (
	stderrors "errors"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/diff"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/tool"
)

// An empty diff is left to the parser so it reports a DiffParseError.
type diffRequest struct {
	Diff string `json:"diff"`
}

type applyRequest struct {
	Diff          string      `json:"diff"`
	CommitMessage string      `json:"commitMessage"`
	Author        *git.Author `json:"author"`
}

type applyResponse struct {
	OK            bool             `json:"ok"`
	Changed       []string         `json:"changed"`
	LintOutcome   *tool.LintResult `json:"lintOutcome"`
	LintError     string           `json:"lintError,omitempty"`
	CommitOutcome *tool.Outcome    `json:"commitOutcome,omitempty"`
}

type toolRequest struct {
	Subdir         string   `json:"subdir"`
	Args           []string `json:"args"`
	TimeoutSeconds int      `json:"timeoutSeconds" binding:"gte=0"`
}

type runRequest struct {
	Module  string   `json:"module" binding:"required"`
	Args    []string `json:"args"`
	Timeout int      `json:"timeout" binding:"gte=0"`
}

type unifiedRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type unifiedResponse struct {
	Path    string `json:"path"`
	Diff    string `json:"diff"`
	Changed bool   `json:"changed"`
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Completion string `json:"completion"`
	Model      string `json:"model,omitempty"`
}

type commitRequest struct {
	Message string      `json:"message" binding:"required"`
	Paths   []string    `json:"paths"`
	Author  *git.Author `json:"author"`
}

type revertRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) preview(c *gin.Context) {
	var req diffRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.deps.Applier.Preview(c.Request.Context(), req.Diff)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// apply writes the diff, runs lint over the result, and commits the changed
// paths when a commit message is given. A failing lint does not fail the apply.
func (s *Server) apply(c *gin.Context) {
	var req applyRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()

	res, err := s.deps.Applier.Apply(ctx, req.Diff)
	if err != nil {
		abortWith(c, err)
		return
	}
	out := applyResponse{OK: res.OK, Changed: res.Changed}

	lint, err := s.deps.Tools.Lint(ctx, tool.Options{})
	out.LintOutcome = lint
	if err != nil {
		out.LintError = err.Error()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("post-apply lint did not run cleanly")
	}

	if req.CommitMessage != "" {
		commit, err := s.deps.VCS.Commit(ctx, res.Changed, req.CommitMessage, req.Author)
		if err != nil {
			abortWith(c, errors.Wrap(err, "patch applied but commit failed"))
			return
		}
		out.CommitOutcome = commit
	}
	c.JSON(http.StatusOK, out)
}

// diff returns the unified diff that would turn a sandbox file into the
// given content. Nothing is written.
func (s *Server) diff(c *gin.Context) {
	var req unifiedRequest
	if !bind(c, &req) {
		return
	}
	abs, rel, err := s.deps.Guard.Resolve(req.Path)
	if err != nil {
		abortWith(c, err)
		return
	}
	current, err := os.ReadFile(abs) //nolint:gosec // path checked by the sandbox guard
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		abortWith(c, err)
		return
	}
	text, err := diff.UnifiedFile(rel, string(current), req.Content)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, unifiedResponse{Path: rel, Diff: text, Changed: text != ""})
}

// runTool reports a tool's own failure, timeouts included, as a 200 with
// success=false. Only a tool that could not run is an error response.
func (s *Server) runTool(c *gin.Context) {
	name, err := tool.ParseName(c.Param("name"))
	if err != nil {
		abortWith(c, err)
		return
	}
	var req toolRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	out, err := s.deps.Tools.Run(c.Request.Context(), name, tool.Options{
		Subdir:  req.Subdir,
		Args:    req.Args,
		Timeout: time.Duration(req.TimeoutSeconds) * time.Second,
	})
	if out == nil || (err != nil && !stderrors.Is(err, errors.ErrCommandTimeout)) {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) check(c *gin.Context) {
	var req toolRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	report, err := s.deps.Tools.RunChecks(c.Request.Context(), tool.Options{
		Subdir:  req.Subdir,
		Timeout: time.Duration(req.TimeoutSeconds) * time.Second,
	})
	if report == nil {
		abortWith(c, err)
		return
	}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("check run reported an operational error")
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) runModule(c *gin.Context) {
	var req runRequest
	if !bind(c, &req) {
		return
	}
	if req.Args == nil {
		req.Args = []string{}
	}
	res, err := s.deps.Tools.RunModule(c.Request.Context(), req.Module, req.Args, time.Duration(req.Timeout)*time.Second)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) complete(c *gin.Context) {
	var req completionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	out, err := s.deps.Proposer.Propose(c.Request.Context(), req.Prompt)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, completionResponse{Completion: out.Text, Model: out.Model})
}

// runAgent always answers 200 with the run record; a failed run is a
// record with a failed-at-<stage> status.
func (s *Server) runAgent(c *gin.Context) {
	var req agent.Request
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		abortWith(c, errors.Wrap(errors.ErrEmptyValue, "task is required"))
		return
	}
	rec := s.deps.Agent.Run(c.Request.Context(), req)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) vcsStatus(c *gin.Context) {
	res, err := s.deps.VCS.Status(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) vcsCommit(c *gin.Context) {
	var req commitRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.deps.VCS.Commit(c.Request.Context(), req.Paths, req.Message, req.Author)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// vcsRevert is destructive and requires {"confirm": true}.
func (s *Server) vcsRevert(c *gin.Context) {
	var req revertRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	if !req.Confirm {
		abortWith(c, errors.Wrap(errors.ErrInvalidArgument, "revert discards the last commit and all uncommitted changes; send {\"confirm\": true}"))
		return
	}
	out, err := s.deps.VCS.RevertLast(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
