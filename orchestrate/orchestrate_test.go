package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhound420/acp-agents-skill/core"
)

// fakeCaller routes calls to per-agent functions, recording call order.
type fakeCaller struct {
	mu     sync.Mutex
	agents map[string]func(ctx context.Context, input []core.Message) ([]core.Message, error)
	calls  []string
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{agents: map[string]func(context.Context, []core.Message) ([]core.Message, error){}}
}

func (f *fakeCaller) on(agent string, fn func(ctx context.Context, input []core.Message) ([]core.Message, error)) {
	f.agents[agent] = fn
}

// reply registers an agent that always answers with the given text.
func (f *fakeCaller) reply(agent, text string) {
	f.on(agent, func(context.Context, []core.Message) ([]core.Message, error) {
		return []core.Message{core.NewAgentMessage(text)}, nil
	})
}

func (f *fakeCaller) Call(ctx context.Context, agentName string, input []core.Message) (*core.Run, error) {
	f.mu.Lock()
	f.calls = append(f.calls, agentName)
	fn, ok := f.agents[agentName]
	f.mu.Unlock()

	if !ok {
		return nil, core.Errorf(core.KindAgentNotFound, agentName, "agent %q is not registered", agentName)
	}
	output, err := fn(ctx, input)
	if err != nil {
		return nil, err
	}
	run := core.NewRun(agentName, input, core.ModeSync)
	run.State = core.StateInProgress
	run.Complete(output)
	return run, nil
}

func (f *fakeCaller) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestFanOutOrderPreserved(t *testing.T) {
	fc := newFakeCaller()
	// Inverted latency: the first request finishes last.
	fc.on("slow", func(ctx context.Context, _ []core.Message) ([]core.Message, error) {
		time.Sleep(50 * time.Millisecond)
		return []core.Message{core.NewAgentMessage("slow done")}, nil
	})
	fc.reply("fast", "fast done")

	e := New(fc)
	result, err := e.FanOut(context.Background(), []Request{
		{Agent: "slow", Input: []core.Message{core.NewUserMessage("a")}},
		{Agent: "fast", Input: []core.Message{core.NewUserMessage("b")}},
	})
	require.NoError(t, err)
	require.Len(t, result.Branches, 2)

	assert.Equal(t, "slow", result.Branches[0].Agent)
	assert.Equal(t, "slow done", core.JoinText(result.Branches[0].Output))
	assert.Equal(t, "fast", result.Branches[1].Agent)
	assert.Equal(t, "fast done", core.JoinText(result.Branches[1].Output))
}

func TestFanOutFailFastCancelsSiblings(t *testing.T) {
	fc := newFakeCaller()
	fc.on("bad", func(context.Context, []core.Message) ([]core.Message, error) {
		return nil, core.Errorf(core.KindBackendUnavailable, "bad", "down")
	})
	var sawCancel atomic.Bool
	fc.on("patient", func(ctx context.Context, _ []core.Message) ([]core.Message, error) {
		select {
		case <-ctx.Done():
			sawCancel.Store(true)
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return []core.Message{core.NewAgentMessage("too late")}, nil
		}
	})

	e := New(fc)
	result, err := e.FanOut(context.Background(), []Request{
		{Agent: "patient", Input: []core.Message{core.NewUserMessage("x")}},
		{Agent: "bad", Input: []core.Message{core.NewUserMessage("x")}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.True(t, sawCancel.Load())
	require.NotNil(t, result.Branches[1].Err)
	assert.Equal(t, core.KindBackendUnavailable, result.Branches[1].Err.Kind)
}

func TestFanOutBestEffort(t *testing.T) {
	fc := newFakeCaller()
	fc.reply("ok", "fine")
	fc.on("bad", func(context.Context, []core.Message) ([]core.Message, error) {
		return nil, core.Errorf(core.KindTimeout, "bad", "too slow")
	})

	e := New(fc)
	result, err := e.FanOut(context.Background(), []Request{
		{Agent: "ok", Input: []core.Message{core.NewUserMessage("x")}},
		{Agent: "bad", Input: []core.Message{core.NewUserMessage("x")}},
	}, func(o *FanOutOptions) { o.Policy = BestEffort })
	require.NoError(t, err)

	require.Len(t, result.Succeeded(), 1)
	assert.Equal(t, "ok", result.Succeeded()[0].Agent)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, core.KindTimeout, result.Failed()[0].Err.Kind)
}

func TestFanOutConcurrencyLimit(t *testing.T) {
	var active, peak atomic.Int32
	fc := newFakeCaller()
	for i := 0; i < 6; i++ {
		fc.on(fmt.Sprintf("agent-%d", i), func(context.Context, []core.Message) ([]core.Message, error) {
			cur := active.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return []core.Message{core.NewAgentMessage("done")}, nil
		})
	}

	e := New(fc, func(o *Options) { o.Concurrency = 2 })
	reqs := make([]Request, 6)
	for i := range reqs {
		reqs[i] = Request{Agent: fmt.Sprintf("agent-%d", i), Input: []core.Message{core.NewUserMessage("x")}}
	}
	_, err := e.FanOut(context.Background(), reqs)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFanOutEmpty(t *testing.T) {
	e := New(newFakeCaller())
	result, err := e.FanOut(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Branches)
}

func TestPipeline(t *testing.T) {
	fc := newFakeCaller()
	fc.on("upper", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		return []core.Message{core.NewAgentMessage(strings.ToUpper(core.JoinText(input)))}, nil
	})
	fc.on("exclaim", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		return []core.Message{core.NewAgentMessage(core.JoinText(input) + "!")}, nil
	})

	e := New(fc)
	out, err := e.Pipeline(context.Background(), []string{"upper", "exclaim"},
		[]core.Message{core.NewUserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "HELLO!", core.JoinText(out))
	assert.Equal(t, []string{"upper", "exclaim"}, fc.callOrder())
}

func TestPipelineStageFailureStopsChain(t *testing.T) {
	fc := newFakeCaller()
	fc.reply("first", "ok")
	fc.on("broken", func(context.Context, []core.Message) ([]core.Message, error) {
		return nil, core.Errorf(core.KindInternal, "broken", "boom")
	})
	fc.reply("never", "unreachable")

	e := New(fc)
	_, err := e.Pipeline(context.Background(), []string{"first", "broken", "never"},
		[]core.Message{core.NewUserMessage("x")})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Stage)
	assert.Equal(t, "broken", se.Agent)
	assert.NotContains(t, fc.callOrder(), "never")
}

func TestDebateTranscriptOrder(t *testing.T) {
	fc := newFakeCaller()
	fc.reply("pro", "machines can think")
	fc.reply("con", "machines only compute")

	e := New(fc)
	result, err := e.Debate(context.Background(), DebateConfig{
		Topic:        "Can machines think?",
		Participants: []string{"pro", "con"},
		Rounds:       2,
	})
	require.NoError(t, err)

	s := result.Session
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 2, s.Round)
	require.Len(t, s.Transcript, 4)

	// Round-major, participant order within each round.
	assert.Equal(t, []string{"pro", "con", "pro", "con"}, fc.callOrder())
	for i, turn := range s.Transcript {
		assert.Equal(t, i/2+1, turn.Round)
	}
	assert.Equal(t, "machines can think", s.Transcript[0].Message.Text())
}

func TestDebateParticipantsSeeTranscript(t *testing.T) {
	fc := newFakeCaller()
	var secondSaw string
	fc.reply("first", "opening statement")
	fc.on("second", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		secondSaw = core.JoinText(input)
		return []core.Message{core.NewAgentMessage("rebuttal")}, nil
	})

	e := New(fc)
	_, err := e.Debate(context.Background(), DebateConfig{
		Topic:        "testing",
		Participants: []string{"first", "second"},
	})
	require.NoError(t, err)

	assert.Contains(t, secondSaw, "DEBATE TOPIC: testing")
	assert.Contains(t, secondSaw, "first: opening statement")
	assert.Contains(t, secondSaw, "respond as second")
}

func TestDebateContextWindow(t *testing.T) {
	fc := newFakeCaller()
	var lastSeen string
	turn := 0
	fc.on("solo", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		lastSeen = core.JoinText(input)
		turn++
		return []core.Message{core.NewAgentMessage(fmt.Sprintf("argument %d", turn))}, nil
	})

	e := New(fc)
	_, err := e.Debate(context.Background(), DebateConfig{
		Topic:        "windows",
		Participants: []string{"solo"},
		Rounds:       5,
		MaxContext:   2,
	})
	require.NoError(t, err)

	// The final turn sees only the two most recent arguments.
	assert.Contains(t, lastSeen, "argument 3")
	assert.Contains(t, lastSeen, "argument 4")
	assert.NotContains(t, lastSeen, "argument 2")
}

func TestDebateFullTranscriptByDefault(t *testing.T) {
	fc := newFakeCaller()
	var lastSeen string
	turn := 0
	fc.on("solo", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		lastSeen = core.JoinText(input)
		turn++
		return []core.Message{core.NewAgentMessage(fmt.Sprintf("argument %d", turn))}, nil
	})

	e := New(fc)
	_, err := e.Debate(context.Background(), DebateConfig{
		Topic:        "memory",
		Participants: []string{"solo"},
		Rounds:       9,
	})
	require.NoError(t, err)

	// Without an explicit window the final turn sees every earlier argument.
	assert.Contains(t, lastSeen, "argument 1")
	assert.Contains(t, lastSeen, "argument 8")
}

func TestDebateSynthesizer(t *testing.T) {
	fc := newFakeCaller()
	fc.reply("pro", "yes")
	fc.reply("con", "no")
	var clerkSaw string
	fc.on("clerk", func(_ context.Context, input []core.Message) ([]core.Message, error) {
		clerkSaw = core.JoinText(input)
		return []core.Message{core.NewAgentMessage("the verdict")}, nil
	})

	e := New(fc)
	result, err := e.Debate(context.Background(), DebateConfig{
		Topic:        "anything",
		Participants: []string{"pro", "con"},
		Synthesizer:  "clerk",
	})
	require.NoError(t, err)
	assert.Equal(t, "the verdict", core.JoinText(result.Verdict))
	assert.Contains(t, clerkSaw, "pro: yes")
	assert.Contains(t, clerkSaw, "con: no")
}

func TestDebateCancellation(t *testing.T) {
	fc := newFakeCaller()
	fc.reply("first", "spoke")
	ctx, cancel := context.WithCancel(context.Background())
	fc.on("second", func(ctx context.Context, _ []core.Message) ([]core.Message, error) {
		cancel()
		return nil, core.FromContext("second", context.Canceled)
	})

	e := New(fc)
	result, err := e.Debate(ctx, DebateConfig{
		Topic:        "interrupted",
		Participants: []string{"first", "second"},
	})
	require.Error(t, err)
	assert.Equal(t, core.KindCancelled, core.KindOf(err))

	// Transcript holds only fully completed turns.
	s := result.Session
	assert.Equal(t, StatusCancelled, s.Status)
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, "first", s.Transcript[0].Agent)
}

func TestDebateValidation(t *testing.T) {
	e := New(newFakeCaller())

	_, err := e.Debate(context.Background(), DebateConfig{Participants: []string{"a"}})
	require.Error(t, err)

	_, err = e.Debate(context.Background(), DebateConfig{Topic: "t"})
	require.Error(t, err)
}
