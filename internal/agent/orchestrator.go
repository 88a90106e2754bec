package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/ai"
	"github.com/mrz1836/patchbay/internal/clock"
	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/diff"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/prompts"
	"github.com/mrz1836/patchbay/internal/tool"
)

// Patcher previews and applies diffs. *patch.Applier implements it.
type Patcher interface {
	Preview(ctx context.Context, text string) (*patch.PreviewResult, error)
	Apply(ctx context.Context, text string) (*patch.ApplyResult, error)
}

// Validator runs the test suite. *tool.Runner implements it.
type Validator interface {
	Test(ctx context.Context, opts tool.Options) (*tool.TestResult, error)
}

// Committer records changed paths in version control. *git.Gateway implements it.
type Committer interface {
	Commit(ctx context.Context, paths []string, message string, author *git.Author) (*tool.Outcome, error)
}

// Request starts one run.
type Request struct {
	Task   string   `json:"task"`
	Commit bool     `json:"commit"`
	Files  []string `json:"files,omitempty"`
}

// Orchestrator runs agent tasks. Runs share no state; concurrent runs
// against the same sandbox are serialized only by the applier's lock.
type Orchestrator struct {
	proposer  ai.Proposer
	patcher   Patcher
	validator Validator
	committer Committer

	root         string
	commitPrefix string
	clock        clock.Clock
	newID        func() string
	logger       zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCommitter enables commits for runs that request one.
func WithCommitter(c Committer) Option {
	return func(o *Orchestrator) {
		o.committer = c
	}
}

// WithClock replaces the wall clock used for record timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// New creates an Orchestrator.
func New(cfg *config.Config, proposer ai.Proposer, patcher Patcher, validator Validator, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		proposer:     proposer,
		patcher:      patcher,
		validator:    validator,
		root:         cfg.Sandbox.Root,
		commitPrefix: cfg.Agent.CommitMessagePrefix,
		clock:        clock.RealClock{},
		newID:        uuid.NewString,
		logger:       logger.With().Str("component", "agent").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CommitMessage is the message used when a run commits its changes.
func (o *Orchestrator) CommitMessage(task string) string {
	return o.commitPrefix + strings.TrimSpace(task)
}

// Run executes the stages in order and returns the finished record.
// It never returns an error: every failure ends the run in StateFailed
// with the failing stage recorded. A patch that fails validation stays
// applied (and committed, if requested).
func (o *Orchestrator) Run(ctx context.Context, req Request) *Record {
	rec := &Record{
		ID:          o.newID(),
		Task:        req.Task,
		Commit:      req.Commit,
		State:       StateProposing,
		Stages:      []StageRecord{},
		Transitions: []Transition{},
		StartedAt:   o.clock.Now(),
	}
	log := o.logger.With().Str("run_id", rec.ID).Logger()
	log.Info().Bool("commit", req.Commit).Msg("agent run started")

	for !rec.State.Terminal() {
		stage, _ := rec.State.Stage()
		sr := StageRecord{Stage: stage, StartedAt: o.clock.Now()}

		switch stage {
		case constants.StagePropose:
			o.propose(ctx, req, rec, &sr)
		case constants.StagePreview:
			o.preview(ctx, rec, &sr)
		case constants.StageApply:
			o.apply(ctx, req, rec, &sr)
		case constants.StageValidate:
			o.validate(ctx, &sr)
		}
		sr.DurationMs = o.clock.Now().Sub(sr.StartedAt).Milliseconds()
		rec.Stages = append(rec.Stages, sr)

		next, err := Next(rec.State, sr.OK)
		if err != nil {
			log.Error().Err(err).Msg("state machine rejected transition")
			next = StateFailed
		}
		o.transition(rec, next, sr.Error)

		ev := log.Debug()
		if !sr.OK {
			ev = log.Warn().Str("error_kind", sr.ErrorKind).Str("error", sr.Error)
		}
		ev.Str("stage", stage.String()).Int64("duration_ms", sr.DurationMs).Msg("stage finished")
	}

	rec.FinishedAt = o.clock.Now()
	if rec.State == StateSucceeded {
		rec.Status = constants.RunStatusSucceeded
	} else {
		rec.Status = constants.FailedAt(rec.FailedStage())
	}
	log.Info().Str("status", rec.Status.String()).Msg("agent run finished")
	return rec
}

// transition moves rec to "to", recording the edge.
func (o *Orchestrator) transition(rec *Record, to State, reason string) {
	if !IsValidTransition(rec.State, to) {
		to = StateFailed
	}
	rec.Transitions = append(rec.Transitions, Transition{
		From:   rec.State,
		To:     to,
		At:     o.clock.Now(),
		Reason: reason,
	})
	rec.State = to
}

func (o *Orchestrator) propose(ctx context.Context, req Request, rec *Record, sr *StageRecord) {
	if strings.TrimSpace(req.Task) == "" {
		fail(sr, errors.Wrap(errors.ErrEmptyValue, "task cannot be empty"))
		return
	}

	prompt, err := prompts.Render(prompts.AgentPropose, prompts.AgentProposeData{
		Task:  req.Task,
		Root:  o.root,
		Files: req.Files,
	})
	if err != nil {
		fail(sr, err)
		return
	}

	completion, err := o.proposer.Propose(ctx, prompt)
	if err != nil {
		fail(sr, err)
		return
	}
	rec.Proposal = completion.Text

	text, err := diff.Extract(completion.Text)
	if err != nil {
		fail(sr, err)
		return
	}
	rec.Diff = text
	sr.OK = true
}

func (o *Orchestrator) preview(ctx context.Context, rec *Record, sr *StageRecord) {
	res, err := o.patcher.Preview(ctx, rec.Diff)
	if err != nil {
		fail(sr, err)
		return
	}
	sr.Preview = res
	if !res.OK {
		sr.Error = "preview rejected the diff"
		return
	}
	sr.OK = true
}

func (o *Orchestrator) apply(ctx context.Context, req Request, rec *Record, sr *StageRecord) {
	res, err := o.patcher.Apply(ctx, rec.Diff)
	if err != nil {
		fail(sr, err)
		return
	}
	sr.Apply = res

	if req.Commit {
		if o.committer == nil {
			fail(sr, errors.Wrap(errors.ErrGitOperation, "commit requested but version control is not configured"))
			return
		}
		sr.CommitMessage = o.CommitMessage(req.Task)
		out, err := o.committer.Commit(ctx, res.Changed, sr.CommitMessage, nil)
		sr.CommitOutcome = out
		if err != nil {
			fail(sr, err)
			return
		}
		if !out.Success {
			fail(sr, fmt.Errorf("%w: commit exited %d: %s", errors.ErrGitOperation, out.ExitCode, strings.TrimSpace(out.Stderr+out.Stdout)))
			return
		}
	}
	sr.OK = true
}

func (o *Orchestrator) validate(ctx context.Context, sr *StageRecord) {
	res, err := o.validator.Test(ctx, tool.Options{FullOutput: true})
	sr.Validation = res
	if err != nil {
		fail(sr, err)
		return
	}
	if !res.Success {
		sr.Error = fmt.Sprintf("tests failed (exit %d)", res.ExitCode)
		return
	}
	sr.OK = true
}

func fail(sr *StageRecord, err error) {
	sr.OK = false
	sr.Error = err.Error()
	sr.ErrorKind = errors.Kind(err)
	sr.File = errors.OffendingFile(err)
}

var (
	_ Patcher   = (*patch.Applier)(nil)
	_ Validator = (*tool.Runner)(nil)
	_ Committer = (*git.Gateway)(nil)
)
