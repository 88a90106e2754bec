package agent

import (
	"time"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/tool"
)

// Record is the transcript of one run. It is returned to the caller and
// never persisted.
type Record struct {
	ID     string `json:"id"`
	Task   string `json:"task"`
	Commit bool   `json:"commit"`

	// Status is "succeeded" or "failed-at-<stage>".
	Status constants.RunStatus `json:"status"`
	State  State               `json:"state"`

	// Proposal is the full model response; Diff is the block extracted from it.
	Proposal string `json:"proposal,omitempty"`
	Diff     string `json:"diff,omitempty"`

	// Stages holds one entry per stage that ran, in order.
	Stages      []StageRecord `json:"stages"`
	Transitions []Transition  `json:"transitions"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// StageRecord is the result of one stage. Exactly the fields belonging to
// the stage are set.
type StageRecord struct {
	Stage      constants.Stage `json:"stage"`
	OK         bool            `json:"ok"`
	StartedAt  time.Time       `json:"startedAt"`
	DurationMs int64           `json:"durationMs"`

	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
	File      string `json:"file,omitempty"`

	Preview       *patch.PreviewResult `json:"preview,omitempty"`
	Apply         *patch.ApplyResult   `json:"apply,omitempty"`
	CommitMessage string               `json:"commitMessage,omitempty"`
	CommitOutcome *tool.Outcome        `json:"commitOutcome,omitempty"`
	Validation    *tool.TestResult     `json:"validation,omitempty"`
}

// Transition is one edge taken by the run.
type Transition struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

// Succeeded reports whether the run finished with passing validation.
func (r *Record) Succeeded() bool {
	return r.Status.Succeeded()
}

// StageResult returns the record for stage, or nil if the stage never ran.
func (r *Record) StageResult(stage constants.Stage) *StageRecord {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			return &r.Stages[i]
		}
	}
	return nil
}

// FailedStage returns the stage the run failed at, or "" if it succeeded
// or has not finished.
func (r *Record) FailedStage() constants.Stage {
	if r.State != StateFailed || len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Stage
}
