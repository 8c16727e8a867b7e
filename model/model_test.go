package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhound420/acp-agents-skill/core"
)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for r := range respCh {
		responses = append(responses, r)
	}
	return responses, <-errCh
}

func TestMockModelSync(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "world")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("hello")},
	})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "world", responses[0].Text)
}

func TestMockModelStream(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("hello")},
		Stream:   true,
	})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	// Partial chunks reassemble into the final response.
	var partials string
	var final string
	for _, r := range responses {
		if r.Partial {
			partials += r.Text
		} else {
			final = r.Text
		}
	}
	assert.Equal(t, "abc", partials)
	assert.Equal(t, "abc", final)
}

func TestMockModelEmptyInput(t *testing.T) {
	m := NewMockModel("test")
	respCh, errCh := m.Generate(context.Background(), Request{})
	_, err := drain(t, respCh, errCh)
	assert.Error(t, err)
}

// thoughtModel exercises the reasoning trace path of the bridge.
type thoughtModel struct{}

func (thoughtModel) Generate(_ context.Context, _ Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 4)
	errCh := make(chan error, 1)
	respCh <- Response{Partial: true, Thought: "pondering"}
	respCh <- Response{Partial: true, Text: "an"}
	respCh <- Response{Text: "answer"}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (thoughtModel) Info() Info { return Info{Name: "thoughts", Provider: "mock"} }

func TestHandlerBridge(t *testing.T) {
	h := NewHandler(thoughtModel{}, "be helpful")

	chunks, errCh := h.Invoke(context.Background(), []core.Message{core.NewUserMessage("q")})

	var collected []core.Chunk
	for c := range chunks {
		collected = append(collected, c)
	}
	require.NoError(t, <-errCh)
	require.Len(t, collected, 3)

	assert.Equal(t, "pondering", collected[0].Thought)
	require.NotNil(t, collected[1].Part)
	assert.Equal(t, "an", collected[1].Part.Content)
	require.NotNil(t, collected[2].Message)
	assert.Equal(t, "answer", collected[2].Message.Text())
	assert.Equal(t, core.RoleAgent, collected[2].Message.Role)
}

func TestHandlerSystemPrompt(t *testing.T) {
	var sawSystem string
	m := &capturingModel{capture: func(req Request) { sawSystem = req.System }}

	h := NewHandler(m, "you are a pirate")
	chunks, errCh := h.Invoke(context.Background(), []core.Message{core.NewUserMessage("hi")})
	for range chunks {
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "you are a pirate", sawSystem)
}

type capturingModel struct {
	capture func(Request)
}

func (m *capturingModel) Generate(_ context.Context, req Request) (<-chan Response, <-chan error) {
	m.capture(req)
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	respCh <- Response{Text: "ok"}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (m *capturingModel) Info() Info { return Info{Name: "capture", Provider: "mock"} }

// failingModel returns an error after no output.
type failingModel struct{}

func (failingModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error, 1)
	errCh <- errors.New("backend exploded")
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (failingModel) Info() Info { return Info{Name: "failing", Provider: "mock"} }

func TestHandlerModelError(t *testing.T) {
	h := NewHandler(failingModel{}, "")
	chunks, errCh := h.Invoke(context.Background(), []core.Message{core.NewUserMessage("hi")})
	for range chunks {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")
}
