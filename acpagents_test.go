package acpagents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/orchestrate"
)

func newTestHub() *Hub {
	h := New(func(o *Options) { o.Name = "test-hub" })
	h.RegisterLocal("echo", core.HandlerFunc(func(_ context.Context, input []core.Message) ([]core.Message, error) {
		return []core.Message{core.NewAgentMessage("echo: " + core.JoinText(input))}, nil
	}), "chat")
	h.RegisterLocal("shout", core.HandlerFunc(func(_ context.Context, input []core.Message) ([]core.Message, error) {
		return []core.Message{core.NewAgentMessage(strings.ToUpper(core.JoinText(input)))}, nil
	}), "chat")
	return h
}

func TestHubCall(t *testing.T) {
	h := newTestHub()

	run, err := h.Call(context.Background(), "echo", []core.Message{core.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", core.JoinText(run.Output))
	assert.Len(t, h.Agents(), 2)
}

func TestHubStream(t *testing.T) {
	h := newTestHub()

	_, events, err := h.Stream(context.Background(), "echo", []core.Message{core.NewUserMessage("hi")})
	require.NoError(t, err)

	var last core.Event
	for ev := range events {
		last = ev
	}
	require.Equal(t, core.EventRunCompleted, last.Type)
	assert.Equal(t, "echo: hi", core.JoinText(last.Payload.Run.Output))
}

func TestHubFanOut(t *testing.T) {
	h := newTestHub()

	result, err := h.FanOut(context.Background(), []orchestrate.Request{
		{Agent: "echo", Input: []core.Message{core.NewUserMessage("a")}},
		{Agent: "shout", Input: []core.Message{core.NewUserMessage("b")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: a", core.JoinText(result.Branches[0].Output))
	assert.Equal(t, "B", core.JoinText(result.Branches[1].Output))
}

func TestHubPipeline(t *testing.T) {
	h := newTestHub()

	out, err := h.Pipeline(context.Background(), []string{"echo", "shout"},
		[]core.Message{core.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ECHO: HI", core.JoinText(out))
}

func TestHubDebate(t *testing.T) {
	h := newTestHub()

	result, err := h.Debate(context.Background(), orchestrate.DebateConfig{
		Topic:        "echoes versus shouts",
		Participants: []string{"echo", "shout"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Session.Transcript, 2)
	assert.Equal(t, orchestrate.StatusCompleted, result.Session.Status)
}
