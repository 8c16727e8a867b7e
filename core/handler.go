package core

import "context"

// Chunk is one unit of incremental handler output. Exactly one field is set
// per chunk:
//
//   - Thought: a progress / trace note, surfaced as a generic event
//   - Part: an incremental fragment of the output message under construction
//   - Message: a finalized output message (closes any pending Part sequence)
//
// A handler that only produces final messages may emit Message chunks alone;
// the dispatch layer assembles pending Parts into a message if the handler
// closes its channel without finalizing them.
type Chunk struct {
	Thought string
	Part    *Part
	Message *Message
}

// Handler is the in-process agent capability: given an input message
// sequence, produce an output sequence, optionally incrementally. The
// returned channels are closed when the handler is done; the error channel
// carries at most one terminal error. Implementations must respect context
// cancellation, and computationally heavy handlers should yield between
// chunks so they do not starve concurrent fan-out branches.
type Handler interface {
	Invoke(ctx context.Context, input []Message) (<-chan Chunk, <-chan error)
}

// HandlerFunc adapts a plain request/response function to the Handler
// interface, emitting each returned message as a final chunk.
type HandlerFunc func(ctx context.Context, input []Message) ([]Message, error)

// Invoke implements Handler.
func (f HandlerFunc) Invoke(ctx context.Context, input []Message) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		msgs, err := f(ctx, input)
		if err != nil {
			errCh <- err
			return
		}
		for i := range msgs {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- Chunk{Message: &msgs[i]}:
			}
		}
	}()
	return out, errCh
}
