package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageText(t *testing.T) {
	m := Message{Role: RoleAgent, Parts: []Part{{Content: "foo"}, {Content: "bar"}}}
	assert.Equal(t, "foobar", m.Text())
	assert.False(t, m.Empty())
	assert.True(t, Message{}.Empty())
}

func TestJoinText(t *testing.T) {
	msgs := []Message{NewUserMessage("a"), NewAgentMessage("b")}
	assert.Equal(t, "a\nb", JoinText(msgs))
}

func TestRunLifecycle(t *testing.T) {
	run := NewRun("echo", []Message{NewUserMessage("hi")}, ModeSync)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StateCreated, run.State)
	assert.False(t, run.State.Terminal())

	run.State = StateInProgress
	run.Complete([]Message{NewAgentMessage("done")})
	assert.Equal(t, StateCompleted, run.State)
	assert.True(t, run.State.Terminal())

	// Terminal states are final.
	run.Fail(Errorf(KindInternal, "echo", "boom"))
	assert.Equal(t, StateCompleted, run.State)
	assert.Nil(t, run.Err)
}

func TestRunIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		run := NewRun("a", nil, ModeSync)
		assert.False(t, seen[run.ID])
		seen[run.ID] = true
	}
}

func TestEmitterSequence(t *testing.T) {
	em := NewEmitter("run-1")

	created := em.Next(EventRunCreated, Payload{})
	progress := em.Next(EventRunInProgress, Payload{})
	done := em.Next(EventRunCompleted, Payload{})

	assert.Equal(t, 0, created.Sequence)
	assert.Equal(t, 1, progress.Sequence)
	assert.Equal(t, 2, done.Sequence)
	assert.Equal(t, "run-1", done.RunID)
	assert.True(t, done.Type.Terminal())
	assert.False(t, progress.Type.Terminal())
}

func TestErrorClassification(t *testing.T) {
	err := Errorf(KindAgentNotFound, "ghost", "no descriptor")
	assert.Equal(t, KindAgentNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "ghost")

	wrapped := WrapError(KindBackendUnavailable, "remote", errors.New("connection refused"))
	assert.Equal(t, KindBackendUnavailable, KindOf(wrapped))
	assert.EqualError(t, wrapped.Unwrap(), "connection refused")

	// Wrapping an already classified error keeps the original kind.
	rewrapped := WrapError(KindInternal, "", wrapped)
	assert.Equal(t, KindBackendUnavailable, rewrapped.Kind)

	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, KindTimeout, FromContext("a", context.DeadlineExceeded).Kind)
	assert.Equal(t, KindCancelled, FromContext("a", context.Canceled).Kind)
}

func TestHandlerFunc(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, input []Message) ([]Message, error) {
		return []Message{NewAgentMessage("echo: " + input[0].Text())}, nil
	})

	chunks, errCh := h.Invoke(context.Background(), []Message{NewUserMessage("hi")})

	var msgs []Message
	for c := range chunks {
		require.NotNil(t, c.Message)
		msgs = append(msgs, *c.Message)
	}
	require.NoError(t, <-errCh)
	require.Len(t, msgs, 1)
	assert.Equal(t, "echo: hi", msgs[0].Text())
}

func TestHandlerFuncError(t *testing.T) {
	sentinel := errors.New("boom")
	h := HandlerFunc(func(context.Context, []Message) ([]Message, error) {
		return nil, sentinel
	})

	chunks, errCh := h.Invoke(context.Background(), nil)
	for range chunks {
		t.Fatal("no chunks expected")
	}
	assert.ErrorIs(t, <-errCh, sentinel)
}
