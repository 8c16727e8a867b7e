package model

import (
	"context"

	"github.com/zhound420/acp-agents-skill/core"
)

// HandlerOptions configures the Model to agent bridge.
type HandlerOptions struct {
	// Stream requests partial output from the backend so hosted runs
	// surface message.part events as text is produced.
	Stream bool
}

// handler adapts a Model to the agent Handler contract.
type handler struct {
	model  Model
	system string
	stream bool
}

// NewHandler hosts a model as an agent. The system prompt fixes the agent's
// persona; every invocation sends it ahead of the conversation. Partial
// model output becomes message parts, reasoning traces become thoughts, and
// the final response becomes the completed agent message.
func NewHandler(m Model, system string, optFns ...func(o *HandlerOptions)) core.Handler {
	opts := HandlerOptions{Stream: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &handler{model: m, system: system, stream: opts.Stream}
}

func (h *handler) Invoke(ctx context.Context, input []core.Message) (<-chan core.Chunk, <-chan error) {
	out := make(chan core.Chunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		respCh, modelErrCh := h.model.Generate(ctx, Request{
			System:   h.system,
			Messages: input,
			Stream:   h.stream,
		})

		for resp := range respCh {
			var chunk core.Chunk
			switch {
			case resp.Thought != "":
				chunk = core.Chunk{Thought: resp.Thought}
			case resp.Partial:
				chunk = core.Chunk{Part: &core.Part{Content: resp.Text}}
			default:
				msg := core.NewAgentMessage(resp.Text)
				chunk = core.Chunk{Message: &msg}
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if err := <-modelErrCh; err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}
