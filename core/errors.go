package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for retry and propagation decisions.
type Kind string

const (
	// KindAgentNotFound means no descriptor exists for the requested name.
	// Never retried; surfaced immediately.
	KindAgentNotFound Kind = "agent_not_found"
	// KindDiscoveryFailed means a remote metadata document was unreachable
	// or malformed.
	KindDiscoveryFailed Kind = "discovery_failed"
	// KindBackendUnavailable means a transient network failure reaching a
	// remote backend. Retried with backoff up to a cap, then surfaced.
	KindBackendUnavailable Kind = "backend_unavailable"
	// KindTimeout means the call deadline expired; in-flight work was
	// cancelled. Not retried automatically.
	KindTimeout Kind = "timeout"
	// KindMalformedResponse means the backend produced a response that does
	// not conform to the protocol shape. Not retried; the reason carries the
	// raw payload for diagnosis.
	KindMalformedResponse Kind = "malformed_response"
	// KindCancelled means the call was cancelled by its caller or by
	// sibling-failure propagation.
	KindCancelled Kind = "cancelled"
	// KindInternal means a local backend capability failed on its own
	// terms. Not retried.
	KindInternal Kind = "internal"
)

// Error is the structured failure carried by failed runs and returned by
// registry, router and orchestration operations. Reason is the
// human-readable explanation; Cause preserves the underlying error chain.
type Error struct {
	Kind   Kind   `json:"kind"`
	Agent  string `json:"agent,omitempty"`
	Reason string `json:"reason"`
	Cause  error  `json:"-"`
}

// Errorf builds a classified error with a formatted reason.
func Errorf(kind Kind, agent, format string, args ...any) *Error {
	return &Error{Kind: kind, Agent: agent, Reason: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error, preserving it for Unwrap. If err
// is already a *Error it is returned unchanged.
func WrapError(kind Kind, agent string, err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: kind, Agent: agent, Reason: err.Error(), Cause: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("%s: agent %q: %s", e.Kind, e.Agent, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the classification from an error chain. Context errors map
// to timeout / cancelled; anything unclassified is internal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindInternal
	}
}

// FromContext classifies a context cancellation error: deadline expiry
// becomes timeout, explicit cancellation becomes cancelled.
func FromContext(agent string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, agent, err)
	}
	return WrapError(KindCancelled, agent, err)
}
