package core

import (
	"time"

	"github.com/google/uuid"
)

// RunMode selects between blocking and incremental execution of a run.
type RunMode string

const (
	// ModeSync blocks until the run reaches a terminal state and returns
	// the assembled output.
	ModeSync RunMode = "sync"
	// ModeStream delivers the run as an ordered event sequence.
	ModeStream RunMode = "stream"
)

// RunState is one position in the run lifecycle state machine:
//
//	created → in-progress → {completed | failed}
//
// No transition leaves a terminal state.
type RunState string

const (
	// StateCreated is assigned on receipt of a dispatch request, before
	// any backend work begins.
	StateCreated RunState = "created"
	// StateInProgress is entered once the backend begins producing output.
	StateInProgress RunState = "in-progress"
	// StateCompleted is terminal; the full output message sequence is available.
	StateCompleted RunState = "completed"
	// StateFailed is terminal; the run carries an error classification.
	StateFailed RunState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s RunState) Terminal() bool { return s == StateCompleted || s == StateFailed }

// Run is one execution instance of a call to an agent. A Run is created once
// per dispatch and is never mutated after reaching a terminal state; until
// then it is owned exclusively by the component that created it (the Router
// on the client side, the protocol server on the host side).
type Run struct {
	ID        string    `json:"id"`
	AgentName string    `json:"agent_name"`
	Input     []Message `json:"input"`
	Mode      RunMode   `json:"mode"`
	State     RunState  `json:"state"`
	Output    []Message `json:"output,omitempty"`
	Err       *Error    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRun creates a run in the created state with a fresh unique id.
func NewRun(agentName string, input []Message, mode RunMode) *Run {
	return &Run{
		ID:        NewID(),
		AgentName: agentName,
		Input:     input,
		Mode:      mode,
		State:     StateCreated,
		CreatedAt: time.Now().UTC(),
	}
}

// Complete transitions the run to the completed terminal state with the
// assembled output. It is a no-op if the run is already terminal.
func (r *Run) Complete(output []Message) {
	if r.State.Terminal() {
		return
	}
	r.State = StateCompleted
	r.Output = output
}

// Fail transitions the run to the failed terminal state carrying the error
// classification. It is a no-op if the run is already terminal.
func (r *Run) Fail(err *Error) {
	if r.State.Terminal() {
		return
	}
	r.State = StateFailed
	r.Err = err
}

// NewID generates a unique identifier for runs and related records.
func NewID() string { return uuid.NewString() }
