package model

import (
	"context"
	"fmt"

	"github.com/zhound420/acp-agents-skill/core"
)

// Request captures the normalized model input.
type Request struct {
	// System is the system prompt, usually the agent's persona.
	System string `json:"system,omitempty"`
	// Messages is the conversation so far.
	Messages []core.Message `json:"messages"`
	// Stream requests partial responses ahead of the final one.
	Stream bool `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model. A partial
// response carries a text delta; the final response carries the complete
// text. Thought carries provider reasoning traces when available.
type Response struct {
	Partial bool   `json:"partial"`
	Text    string `json:"text"`
	Thought string `json:"thought,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive generation against a
// backend. Generate returns a response channel and an error channel; both
// are closed when generation finishes. In stream mode partial responses
// precede the final one; in either mode exactly one final response is
// emitted on success.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		inputText := req.Messages[len(req.Messages)-1].Text()

		full := m.responses[inputText]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		respCh <- Response{Text: full}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
