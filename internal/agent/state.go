// Package agent drives one proposal through the fixed run sequence:
//
//	Proposing → Previewing → Applying → Validating → {Succeeded, Failed}
//
// The run is linear. A stage either advances to its successor or fails the
// run; there are no retries and no rollback.
package agent

import (
	"fmt"
	"slices"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
)

// State is the position of a run in the state machine.
type State string

// Run states.
const (
	StateProposing  State = "proposing"
	StatePreviewing State = "previewing"
	StateApplying   State = "applying"
	StateValidating State = "validating"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// validTransitions lists every allowed edge. Terminal states have no entry.
//
//nolint:gochecknoglobals // read-only lookup table
var validTransitions = map[State][]State{
	StateProposing:  {StatePreviewing, StateFailed},
	StatePreviewing: {StateApplying, StateFailed},
	StateApplying:   {StateValidating, StateFailed},
	StateValidating: {StateSucceeded, StateFailed},
}

// stateStage maps each working state to the stage it executes.
//
//nolint:gochecknoglobals // read-only lookup table
var stateStage = map[State]constants.Stage{
	StateProposing:  constants.StagePropose,
	StatePreviewing: constants.StagePreview,
	StateApplying:   constants.StageApply,
	StateValidating: constants.StageValidate,
}

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Stage returns the stage executed in s. ok is false for terminal states.
func (s State) Stage() (stage constants.Stage, ok bool) {
	stage, ok = stateStage[s]
	return stage, ok
}

// IsValidTransition reports whether a run may move from one state to another.
func IsValidTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Next is the transition function: the state that follows from after its
// stage finished. A failed stage always leads to StateFailed.
func Next(from State, stageOK bool) (State, error) {
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s is terminal", errors.ErrInvalidTransition, from)
	}
	targets, ok := validTransitions[from]
	if !ok {
		return from, fmt.Errorf("%w: unknown state %q", errors.ErrInvalidTransition, from)
	}
	if !stageOK {
		return StateFailed, nil
	}
	return targets[0], nil
}
