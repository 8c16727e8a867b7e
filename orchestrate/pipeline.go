package orchestrate

import (
	"context"
	"fmt"

	"github.com/zhound420/acp-agents-skill/core"
)

// StageError reports which pipeline stage failed and why.
type StageError struct {
	Stage int
	Agent string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %d (%s): %v", e.Stage, e.Agent, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline calls the agents in order, feeding each stage's output to the
// next stage as input. The first failing stage stops the chain; no input
// reaches later stages.
func (e *Engine) Pipeline(ctx context.Context, agents []string, input []core.Message) ([]core.Message, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one agent")
	}

	current := input
	for i, agent := range agents {
		e.logger.Debug("pipeline stage", "stage", i, "agent", agent)
		output, err := e.call(ctx, agent, current)
		if err != nil {
			return nil, &StageError{Stage: i, Agent: agent, Err: err}
		}
		current = output
	}
	return current, nil
}
