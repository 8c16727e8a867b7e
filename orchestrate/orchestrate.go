// Package orchestrate composes individual agent calls into multi-agent
// patterns: concurrent fan-out, sequential pipelines, and structured
// debates. The engine only needs something that can execute a call by agent
// name; it never touches transport details, so local and remote agents mix
// freely inside one pattern.
package orchestrate

import (
	"context"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
)

// Caller executes a single sync run against a named agent. *router.Router
// satisfies it.
type Caller interface {
	Call(ctx context.Context, agentName string, input []core.Message) (*core.Run, error)
}

// Options configures the engine.
type Options struct {
	// Concurrency bounds simultaneous branch calls in a fan-out. Zero
	// means unbounded.
	Concurrency int
	// Logger is the logger instance.
	Logger logging.Logger
}

// Engine drives orchestration patterns over a Caller.
type Engine struct {
	caller      Caller
	concurrency int
	logger      logging.Logger
}

// New creates an orchestration engine.
func New(caller Caller, optFns ...func(o *Options)) *Engine {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		caller:      caller,
		concurrency: opts.Concurrency,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// call runs one sync call and reduces it to output or a classified error.
func (e *Engine) call(ctx context.Context, agent string, input []core.Message) ([]core.Message, error) {
	run, err := e.caller.Call(ctx, agent, input)
	if err != nil {
		return nil, err
	}
	return run.Output, nil
}
