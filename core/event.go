package core

// EventType identifies one kind of streamed protocol event.
type EventType string

const (
	// EventRunCreated is always sequence 0: the run was accepted.
	EventRunCreated EventType = "run.created"
	// EventRunInProgress signals the backend started producing.
	EventRunInProgress EventType = "run.in-progress"
	// EventGeneric carries intermediate progress or trace content.
	EventGeneric EventType = "generic"
	// EventMessagePart carries one incremental output fragment.
	EventMessagePart EventType = "message.part"
	// EventMessageCompleted finalizes a full output message, after its
	// constituent parts.
	EventMessageCompleted EventType = "message.completed"
	// EventRunCompleted is the terminal success event, always last.
	EventRunCompleted EventType = "run.completed"
	// EventRunFailed is the terminal failure event, last in place of
	// run.completed.
	EventRunFailed EventType = "run.failed"
)

// Terminal reports whether the event type ends its run's stream. Every
// stream ends with exactly one terminal event.
func (t EventType) Terminal() bool { return t == EventRunCompleted || t == EventRunFailed }

// Payload carries the type-dependent content of an Event. Exactly the
// fields relevant to the event type are set; terminal events carry the full
// Run snapshot so a consumer that only wants the final result may discard
// all but the last event.
type Payload struct {
	Thought string   `json:"thought,omitempty"`
	Part    *Part    `json:"part,omitempty"`
	Message *Message `json:"message,omitempty"`
	Run     *Run     `json:"run,omitempty"`
}

// Event is one ordered unit of streamed protocol output for a Run. Sequence
// numbers are per-run, start at 0 and are gap-free, letting consumers detect
// reordering or loss by comparison. Events are produced only by the side
// hosting the run and are immutable after emission.
type Event struct {
	RunID    string    `json:"runId"`
	Sequence int       `json:"sequence"`
	Type     EventType `json:"type"`
	Payload  Payload   `json:"payload,omitempty"`
}

// Emitter hands out gap-free sequence numbers for one run's event stream.
// It is not safe for concurrent use; a run's events are produced by a single
// goroutine.
type Emitter struct {
	runID string
	next  int
}

// NewEmitter creates an emitter for the given run id starting at sequence 0.
func NewEmitter(runID string) *Emitter { return &Emitter{runID: runID} }

// Next builds the next event in sequence with the given type and payload.
func (e *Emitter) Next(t EventType, p Payload) Event {
	ev := Event{RunID: e.runID, Sequence: e.next, Type: t, Payload: p}
	e.next++
	return ev
}
