// Package registry maintains the process-local catalog of known agents. A
// Descriptor maps an agent name to its backend, either an in-process Handler
// or a remote protocol endpoint. The Registry is the one piece of mutable
// shared state in acp-agents; all access is concurrency-safe and entries are
// replaced whole, never partially mutated in place.
package registry

import (
	"sync"
	"time"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
)

// Kind distinguishes backend variants behind a descriptor.
type Kind string

const (
	// KindLocal marks an in-process capability invoked without a network hop.
	KindLocal Kind = "local"
	// KindRemote marks an agent reached through its protocol endpoint.
	KindRemote Kind = "remote"
)

// Descriptor identifies one agent backend. Name is the sole identity;
// re-registering a name replaces the descriptor entirely. Runs already in
// flight against a replaced descriptor are unaffected because dispatch
// captures the descriptor value at lookup time.
type Descriptor struct {
	Name         string       `json:"name"`
	Kind         Kind         `json:"kind"`
	Description  string       `json:"description,omitempty"`
	Capabilities []string     `json:"capabilities"`
	Endpoint     string       `json:"endpoint,omitempty"`
	DiscoveredAt time.Time    `json:"discovered_at,omitempty"`
	Handler      core.Handler `json:"-"`
}

// HasCapability reports whether the descriptor advertises the capability.
func (d Descriptor) HasCapability(cap string) bool {
	for _, c := range d.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Registry is a concurrency-safe map of agent name to Descriptor. The zero
// value is not usable; construct with New.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]Descriptor
	logger      logging.Logger
	httpTimeout time.Duration
}

// Options configures a Registry.
type Options struct {
	// Logger receives registration and discovery records. Defaults to NoOp.
	Logger logging.Logger
	// HTTPTimeout bounds a single discovery request. Defaults to 10s.
	HTTPTimeout time.Duration
}

// New constructs an empty Registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		HTTPTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		agents:      make(map[string]Descriptor),
		logger:      logging.OrNoOp(opts.Logger),
		httpTimeout: opts.HTTPTimeout,
	}
}

// RegisterLocal is a convenience wrapper registering an in-process handler.
func (r *Registry) RegisterLocal(name string, h core.Handler, capabilities ...string) {
	r.Register(Descriptor{
		Name:         name,
		Kind:         KindLocal,
		Capabilities: capabilities,
		Handler:      h,
	})
}

// RegisterRemote is a convenience wrapper registering a remote endpoint.
func (r *Registry) RegisterRemote(name, endpoint string, capabilities ...string) {
	r.Register(Descriptor{
		Name:         name,
		Kind:         KindRemote,
		Capabilities: capabilities,
		Endpoint:     endpoint,
	})
}

// Register inserts or replaces the descriptor keyed by its name. The
// operation is idempotent and never fails; last writer wins.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	r.agents[d.Name] = d
	r.mu.Unlock()

	r.logger.Debug("agent registered", "agent", d.Name, "kind", string(d.Kind))
}

// Unregister removes the entry; subsequent lookups fail with agent_not_found.
// Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.agents, name)
	r.mu.Unlock()

	r.logger.Debug("agent unregistered", "agent", name)
}

// Lookup returns the current descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.agents[name]
	r.mu.RUnlock()

	if !ok {
		return Descriptor{}, core.Errorf(core.KindAgentNotFound, name, "no descriptor registered")
	}
	return d, nil
}

// List returns a snapshot of all current descriptors taken at call time;
// later registry mutations do not affect the returned slice. Order is not
// specified.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.agents))
	for _, d := range r.agents {
		out = append(out, d)
	}
	return out
}

// Find returns the snapshot filtered to descriptors advertising the given
// capability.
func (r *Registry) Find(capability string) []Descriptor {
	all := r.List()
	out := all[:0]
	for _, d := range all {
		if d.HasCapability(capability) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
