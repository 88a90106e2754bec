package constants

// Stage identifies one step of an agent run.
// Stage values use lowercase for JSON serialization compatibility.
type Stage string

// Agent run stages, in execution order:
//
//	Proposing → Previewing → Applying → Validating → {Succeeded, Failed}
const (
	// StagePropose asks the proposal source for a diff.
	StagePropose Stage = "propose"

	// StagePreview validates the diff without touching disk.
	StagePreview Stage = "preview"

	// StageApply writes the diff (and optionally commits it).
	StageApply Stage = "apply"

	// StageValidate runs the test tool against the patched tree.
	StageValidate Stage = "validate"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// Stages returns all stages in execution order.
func Stages() []Stage {
	return []Stage{StagePropose, StagePreview, StageApply, StageValidate}
}

// RunStatus is the terminal status of an agent run: "succeeded" or "failed-at-<stage>".
type RunStatus string

// RunStatusSucceeded is reported when validation passed.
const RunStatusSucceeded RunStatus = "succeeded"

// Failure statuses, one per stage.
const (
	RunStatusFailedAtPropose  RunStatus = "failed-at-propose"
	RunStatusFailedAtPreview  RunStatus = "failed-at-preview"
	RunStatusFailedAtApply    RunStatus = "failed-at-apply"
	RunStatusFailedAtValidate RunStatus = "failed-at-validate"
)

// FailedAt returns the failure status for the given stage.
func FailedAt(stage Stage) RunStatus {
	return RunStatus("failed-at-" + string(stage))
}

// String returns the string representation of the RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// Succeeded reports whether the status is RunStatusSucceeded.
func (s RunStatus) Succeeded() bool {
	return s == RunStatusSucceeded
}
