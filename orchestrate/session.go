package orchestrate

import "github.com/zhound420/acp-agents-skill/core"

// Status is the lifecycle state of a debate session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Turn is one participant's contribution to a debate.
type Turn struct {
	Round   int          `json:"round"`
	Agent   string       `json:"agent"`
	Message core.Message `json:"message"`
}

// Session is the evolving state of a debate. It is mutated only by the
// engine driving it; after Debate returns it is immutable.
type Session struct {
	ID           string   `json:"id"`
	Topic        string   `json:"topic"`
	Participants []string `json:"participants"`
	Transcript   []Turn   `json:"transcript"`
	Round        int      `json:"round"`
	Status       Status   `json:"status"`
}
