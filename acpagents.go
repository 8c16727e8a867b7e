// Package acpagents provides a high-level façade over the agent registry,
// router and orchestration engine, enabling rapid construction of
// multi-agent systems. Most applications interact with this package by:
//  1. Creating a Hub via New()
//  2. Registering local agents and discovering remote ones
//  3. Dispatching runs (Call, Stream) or composing them (FanOut, Pipeline, Debate)
//  4. Optionally serving the hub's agents over the wire protocol (Serve)
//
// The façade delegates dispatch to router.Router while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger.
package acpagents

import (
	"context"
	"time"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
	"github.com/zhound420/acp-agents-skill/orchestrate"
	"github.com/zhound420/acp-agents-skill/registry"
	"github.com/zhound420/acp-agents-skill/router"
	"github.com/zhound420/acp-agents-skill/server"
)

// Options configures the Hub instance.
type Options struct {
	// Name is the host identity advertised in metadata documents.
	Name string

	// Description is the host description advertised in metadata documents.
	Description string

	// CallTimeout bounds dispatched runs when the caller's context carries
	// no deadline.
	CallTimeout time.Duration

	// MaxAttempts caps remote delivery attempts for transient failures.
	MaxAttempts int

	// Concurrency bounds simultaneous branches in a fan-out. Zero means
	// unbounded.
	Concurrency int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Hub is the high-level façade aggregating registry, router, orchestration
// engine and protocol server.
type Hub struct {
	opts     Options
	registry *registry.Registry
	router   *router.Router
	engine   *orchestrate.Engine
	server   *server.Server
}

// New creates a new Hub with optional overrides.
func New(optFns ...func(o *Options)) *Hub {
	opts := Options{
		Name:   "acp-host",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New(func(o *registry.Options) {
		o.Logger = opts.Logger
	})
	rt := router.New(reg, func(o *router.Options) {
		o.Logger = opts.Logger
		if opts.CallTimeout > 0 {
			o.Timeout = opts.CallTimeout
		}
		if opts.MaxAttempts > 0 {
			o.MaxAttempts = opts.MaxAttempts
		}
	})
	eng := orchestrate.New(rt, func(o *orchestrate.Options) {
		o.Logger = opts.Logger
		o.Concurrency = opts.Concurrency
	})
	srv := server.New(reg, rt, func(o *server.Options) {
		o.Name = opts.Name
		o.Description = opts.Description
		o.Logger = opts.Logger
	})

	return &Hub{opts: opts, registry: reg, router: rt, engine: eng, server: srv}
}

// Registry exposes the underlying agent registry.
func (h *Hub) Registry() *registry.Registry { return h.registry }

// Router exposes the underlying dispatch router.
func (h *Hub) Router() *router.Router { return h.router }

// RegisterLocal adds an in-process agent under the given name.
func (h *Hub) RegisterLocal(name string, handler core.Handler, capabilities ...string) {
	h.registry.RegisterLocal(name, handler, capabilities...)
}

// RegisterRemote adds a remote agent reachable at endpoint.
func (h *Hub) RegisterRemote(name, endpoint string, capabilities ...string) {
	h.registry.RegisterRemote(name, endpoint, capabilities...)
}

// Discover probes endpoint for agent metadata and registers everything it
// advertises.
func (h *Hub) Discover(ctx context.Context, endpoint string) ([]registry.Descriptor, error) {
	return h.registry.Discover(ctx, endpoint)
}

// Agents lists the registered agent descriptors.
func (h *Hub) Agents() []registry.Descriptor { return h.registry.List() }

// Call dispatches a sync run against a named agent.
func (h *Hub) Call(ctx context.Context, agentName string, input []core.Message) (*core.Run, error) {
	return h.router.Call(ctx, agentName, input)
}

// Stream dispatches a stream run against a named agent. The final event on
// the returned channel is always terminal.
func (h *Hub) Stream(ctx context.Context, agentName string, input []core.Message) (*core.Run, <-chan core.Event, error) {
	return h.router.Stream(ctx, agentName, input)
}

// FanOut dispatches requests concurrently and collects results in request
// order.
func (h *Hub) FanOut(ctx context.Context, reqs []orchestrate.Request, optFns ...func(o *orchestrate.FanOutOptions)) (*orchestrate.FanOutResult, error) {
	return h.engine.FanOut(ctx, reqs, optFns...)
}

// Pipeline chains the agents, feeding each stage's output to the next.
func (h *Hub) Pipeline(ctx context.Context, agents []string, input []core.Message) ([]core.Message, error) {
	return h.engine.Pipeline(ctx, agents, input)
}

// Debate runs a multi-round debate between registered agents.
func (h *Hub) Debate(ctx context.Context, cfg orchestrate.DebateConfig) (*orchestrate.DebateResult, error) {
	return h.engine.Debate(ctx, cfg)
}

// Serve exposes the hub's agents over the wire protocol on addr, blocking
// until ctx is cancelled or the listener fails.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.server.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return h.server.Shutdown(shutdownCtx)
	}
}
