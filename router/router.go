// Package router presents one call shape for agent dispatch regardless of
// where the agent executes. Given an agent name and an input message
// sequence it looks up the descriptor in the registry, dispatches to the
// in-process handler or the remote protocol endpoint, and normalizes the
// result into the uniform Run / Event shapes, so callers cannot distinguish
// backend kind from the result. This is the abstraction that lets the
// orchestration layer fan out over a mix of in-process and networked agents
// through a single code path.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
	"github.com/zhound420/acp-agents-skill/registry"
)

// capability is the uniform dispatch target for one agent backend. The
// Router holds only this interface, never backend-specific types. Both
// methods operate on an already-created Run.
type capability interface {
	// call executes the run to its terminal state and returns the terminal
	// snapshot.
	call(ctx context.Context, run *core.Run) (*core.Run, error)
	// stream executes the run as an ordered event sequence. The returned
	// channel is single-pass, closed after exactly one terminal event, and
	// stops delivering promptly when ctx is cancelled.
	stream(ctx context.Context, run *core.Run) (<-chan core.Event, error)
}

// Options configures a Router.
type Options struct {
	// HTTPClient issues remote protocol requests. Connections are pooled by
	// the client's transport and reused across calls to the same endpoint.
	HTTPClient *http.Client
	// Timeout is the default per-call deadline applied when the caller's
	// context has none.
	Timeout time.Duration
	// MaxAttempts caps retries of transient remote failures (the first
	// attempt counts). Minimum 1.
	MaxAttempts int
	// RetryBackoff is the base delay for exponential backoff between
	// attempts.
	RetryBackoff time.Duration
	// EventBufferSize sets channel buffering for streamed events.
	EventBufferSize int
	// Logger receives dispatch and retry records. Defaults to NoOp.
	Logger logging.Logger
}

// Router dispatches agent calls through the registry. Safe for concurrent
// use; a dispatch captures the descriptor at lookup time, so re-registering
// a name does not disrupt runs already in flight.
type Router struct {
	reg         *registry.Registry
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	bufSize     int
	logger      logging.Logger
}

// New constructs a Router bound to the given registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Router {
	opts := Options{
		HTTPClient:      &http.Client{},
		Timeout:         5 * time.Minute,
		MaxAttempts:     3,
		RetryBackoff:    250 * time.Millisecond,
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &Router{
		reg:         reg,
		client:      opts.HTTPClient,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
		bufSize:     opts.EventBufferSize,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Call dispatches a sync-mode run and blocks until the backend reaches a
// terminal state. On success the returned Run is completed and carries the
// assembled output; on failure the Run is failed and the error carries the
// classification.
func (r *Router) Call(ctx context.Context, agentName string, input []core.Message) (*core.Run, error) {
	cap, run, err := r.dispatch(agentName, input, core.ModeSync)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	r.logger.Debug("dispatching sync call", "agent", agentName, "run", run.ID)

	final, err := cap.call(ctx, run)
	if err != nil {
		r.logger.Warn("call failed", "agent", agentName, "run", run.ID, "kind", string(core.KindOf(err)))
		return final, err
	}
	return final, nil
}

// Stream dispatches a stream-mode run. The returned channel is a lazy,
// finite, single-pass event sequence; the final event is always terminal
// (run.completed or run.failed). Cancelling ctx stops event delivery. The
// returned Run is the initial snapshot; consumers read the terminal state
// from the last event's payload.
func (r *Router) Stream(ctx context.Context, agentName string, input []core.Message) (*core.Run, <-chan core.Event, error) {
	cap, run, err := r.dispatch(agentName, input, core.ModeStream)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("dispatching stream call", "agent", agentName, "run", run.ID)

	streamCtx, cancel := r.withDeadline(ctx)

	events, err := cap.stream(streamCtx, run)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	// Forward events and release the deadline timer once the stream ends.
	out := make(chan core.Event, r.bufSize)
	go func() {
		defer cancel()
		defer close(out)
		for ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return run, out, nil
}

// dispatch resolves the descriptor, validates input and builds the run plus
// the capability that will execute it.
func (r *Router) dispatch(agentName string, input []core.Message, mode core.RunMode) (capability, *core.Run, error) {
	if err := core.ValidateInput(input); err != nil {
		return nil, nil, err
	}

	desc, err := r.reg.Lookup(agentName)
	if err != nil {
		return nil, nil, err
	}

	run := core.NewRun(agentName, input, mode)

	switch desc.Kind {
	case registry.KindLocal:
		return &localCapability{
			handler: desc.Handler,
			bufSize: r.bufSize,
		}, run, nil
	default:
		return &remoteCapability{
			agent:       desc.Name,
			endpoint:    desc.Endpoint,
			client:      r.client,
			maxAttempts: r.maxAttempts,
			backoff:     backoffPolicy{base: r.backoff},
			bufSize:     r.bufSize,
			logger:      r.logger,
		}, run, nil
	}
}

// withDeadline applies the router's default timeout when the caller did not
// set one.
func (r *Router) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
