package router

import (
	"context"

	"github.com/zhound420/acp-agents-skill/core"
)

// localCapability invokes an in-process handler. No network is involved, but
// the same Run / Event shapes are produced as for remote backends.
type localCapability struct {
	handler core.Handler
	bufSize int
}

// call drains the event stream and returns the terminal run snapshot.
func (c *localCapability) call(ctx context.Context, run *core.Run) (*core.Run, error) {
	events, err := c.stream(ctx, run)
	if err != nil {
		return nil, err
	}
	return awaitTerminal(ctx, run, events)
}

// stream drives the handler into the full protocol event sequence.
func (c *localCapability) stream(ctx context.Context, run *core.Run) (<-chan core.Event, error) {
	if c.handler == nil {
		return nil, core.Errorf(core.KindInternal, run.AgentName, "local descriptor has no handler")
	}

	events := make(chan core.Event, c.bufSize)
	go func() {
		defer close(events)
		c.drive(ctx, run, events)
	}()
	return events, nil
}

// drive owns the run until terminal. It works on its own copy of the run so
// the caller-visible snapshot is never mutated concurrently; events carry
// copies of the evolving state.
func (c *localCapability) drive(ctx context.Context, initial *core.Run, events chan<- core.Event) {
	run := *initial
	em := core.NewEmitter(run.ID)

	// send delivers an event unless the consumer is gone.
	send := func(ev core.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	// sendTerminal waits for the consumer like send does; even a slow reader
	// must receive the terminal event. Only after cancellation does it
	// degrade to a best-effort attempt, since the consumer may have stopped
	// reading entirely.
	sendTerminal := func(ev core.Event) {
		select {
		case events <- ev:
			return
		case <-ctx.Done():
		}
		select {
		case events <- ev:
		default:
		}
	}
	fail := func(err *core.Error) {
		run.Fail(err)
		snap := run
		sendTerminal(em.Next(core.EventRunFailed, core.Payload{Run: &snap}))
	}

	if !send(em.Next(core.EventRunCreated, core.Payload{})) {
		fail(core.FromContext(run.AgentName, ctx.Err()))
		return
	}

	run.State = core.StateInProgress
	if !send(em.Next(core.EventRunInProgress, core.Payload{})) {
		fail(core.FromContext(run.AgentName, ctx.Err()))
		return
	}

	chunks, errCh := c.handler.Invoke(ctx, run.Input)

	var (
		output  []core.Message
		pending []core.Part
	)
	for {
		select {
		case <-ctx.Done():
			fail(core.FromContext(run.AgentName, ctx.Err()))
			return

		case chunk, ok := <-chunks:
			if !ok {
				if err := <-errCh; err != nil {
					fail(core.WrapError(classifyLocal(err), run.AgentName, err))
					return
				}
				// A handler that streamed parts without finalizing them still
				// yields a complete message.
				if len(pending) > 0 {
					msg := core.Message{Role: core.RoleAgent, Parts: pending}
					output = append(output, msg)
					if !send(em.Next(core.EventMessageCompleted, core.Payload{Message: &msg})) {
						fail(core.FromContext(run.AgentName, ctx.Err()))
						return
					}
				}
				run.Complete(output)
				snap := run
				sendTerminal(em.Next(core.EventRunCompleted, core.Payload{Run: &snap}))
				return
			}

			var ev core.Event
			switch {
			case chunk.Thought != "":
				ev = em.Next(core.EventGeneric, core.Payload{Thought: chunk.Thought})
			case chunk.Part != nil:
				pending = append(pending, *chunk.Part)
				ev = em.Next(core.EventMessagePart, core.Payload{Part: chunk.Part})
			case chunk.Message != nil:
				msg := *chunk.Message
				if len(pending) > 0 && msg.Role == "" {
					msg.Role = core.RoleAgent
				}
				pending = nil
				output = append(output, msg)
				ev = em.Next(core.EventMessageCompleted, core.Payload{Message: &msg})
			default:
				continue
			}
			if !send(ev) {
				fail(core.FromContext(run.AgentName, ctx.Err()))
				return
			}
		}
	}
}

// classifyLocal maps a handler failure to its error kind. Context errors are
// timeout / cancelled; a handler's own failure is internal, never a network
// classification.
func classifyLocal(err error) core.Kind {
	switch kind := core.KindOf(err); kind {
	case core.KindTimeout, core.KindCancelled:
		return kind
	default:
		return core.KindInternal
	}
}

// awaitTerminal drains a stream and extracts the terminal run snapshot,
// turning a failed run into a returned error.
func awaitTerminal(ctx context.Context, run *core.Run, events <-chan core.Event) (*core.Run, error) {
	var terminal *core.Run
	for ev := range events {
		if ev.Type.Terminal() && ev.Payload.Run != nil {
			terminal = ev.Payload.Run
		}
	}

	if terminal == nil {
		// Stream ended without a terminal snapshot: the context was cancelled
		// and the producer could not deliver its final event.
		failed := *run
		failed.Fail(core.FromContext(run.AgentName, ctxErr(ctx)))
		return &failed, failed.Err
	}
	if terminal.State == core.StateFailed {
		return terminal, terminal.Err
	}
	return terminal, nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}
