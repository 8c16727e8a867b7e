package core

// RunRequest is the body of POST /runs, shared by the protocol server and
// the Router's remote dispatch path.
type RunRequest struct {
	AgentName string    `json:"agent_name"`
	Input     []Message `json:"input"`
	Mode      RunMode   `json:"mode"`
}

// RunResponse is the sync-mode response of POST /runs: the terminal status
// with the assembled output, or the error classification on failure.
type RunResponse struct {
	RunID  string    `json:"run_id,omitempty"`
	Status RunState  `json:"status"`
	Output []Message `json:"output,omitempty"`
	Error  *Error    `json:"error,omitempty"`
}

// ValidateInput checks the protocol invariant that an input sequence carries
// at least one message and that no message has an empty part sequence.
func ValidateInput(input []Message) error {
	if len(input) == 0 {
		return Errorf(KindInternal, "", "input must contain at least one message")
	}
	for i, m := range input {
		if m.Empty() {
			return Errorf(KindInternal, "", "input message %d has no parts", i)
		}
	}
	return nil
}
