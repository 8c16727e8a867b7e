package orchestrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhound420/acp-agents-skill/core"
)

// DebateConfig configures a debate.
type DebateConfig struct {
	// Topic is the question under debate.
	Topic string
	// Participants speak in this order, once each per round.
	Participants []string
	// Rounds is the number of full speaking rounds. Defaults to 1.
	Rounds int
	// Synthesizer, when set, names an agent that receives the complete
	// transcript after the final round and produces the verdict.
	Synthesizer string
	// MaxContext, when positive, caps how many recent turns each
	// participant sees. Zero means the full transcript.
	MaxContext int
}

// DebateResult is the completed session plus the synthesizer's verdict,
// when one was configured.
type DebateResult struct {
	Session *Session
	Verdict []core.Message
}

// Debate runs a sequential multi-round debate. Within a round each
// participant speaks in turn and sees the transcript so far, so later
// speakers respond to earlier ones. Cancellation mid-debate leaves the
// transcript consistent up to the last fully completed turn.
func (e *Engine) Debate(ctx context.Context, cfg DebateConfig) (*DebateResult, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("debate requires a topic")
	}
	if len(cfg.Participants) == 0 {
		return nil, fmt.Errorf("debate requires at least one participant")
	}
	rounds := cfg.Rounds
	if rounds <= 0 {
		rounds = 1
	}
	session := &Session{
		ID:           core.NewID(),
		Topic:        cfg.Topic,
		Participants: cfg.Participants,
		Status:       StatusActive,
	}
	result := &DebateResult{Session: session}

	e.logger.Info("debate started", "session", session.ID,
		"participants", len(cfg.Participants), "rounds", rounds)

	for round := 1; round <= rounds; round++ {
		session.Round = round
		for _, agent := range cfg.Participants {
			input := turnInput(cfg.Topic, agent, window(session.Transcript, cfg.MaxContext))
			output, err := e.call(ctx, agent, input)
			if err != nil {
				session.Status = failureStatus(err)
				return result, fmt.Errorf("debate round %d, %s: %w", round, agent, err)
			}
			session.Transcript = append(session.Transcript, Turn{
				Round:   round,
				Agent:   agent,
				Message: core.NewAgentMessage(core.JoinText(output)),
			})
			e.logger.Debug("debate turn recorded", "session", session.ID, "round", round, "agent", agent)
		}
	}

	if cfg.Synthesizer != "" {
		verdict, err := e.call(ctx, cfg.Synthesizer, verdictInput(cfg.Topic, session.Transcript))
		if err != nil {
			session.Status = failureStatus(err)
			return result, fmt.Errorf("debate synthesis by %s: %w", cfg.Synthesizer, err)
		}
		result.Verdict = verdict
	}

	session.Status = StatusCompleted
	e.logger.Info("debate completed", "session", session.ID, "turns", len(session.Transcript))
	return result, nil
}

func window(transcript []Turn, max int) []Turn {
	if max <= 0 || len(transcript) <= max {
		return transcript
	}
	return transcript[len(transcript)-max:]
}

func failureStatus(err error) Status {
	if core.KindOf(err) == core.KindCancelled {
		return StatusCancelled
	}
	return StatusFailed
}

// turnInput builds a participant's view of the debate: the topic, the
// visible transcript attributed by speaker, and the cue to respond. The
// first speaker gets an opening prompt instead.
func turnInput(topic, agent string, visible []Turn) []core.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "DEBATE TOPIC: %s\n\n", topic)

	if len(visible) == 0 {
		b.WriteString("You speak first. Make your opening argument.")
		return []core.Message{core.NewUserMessage(b.String())}
	}

	b.WriteString("PREVIOUS ARGUMENTS:\n")
	for _, turn := range visible {
		fmt.Fprintf(&b, "\n%s: %s\n", turn.Agent, turn.Message.Text())
	}
	fmt.Fprintf(&b, "\nNow respond as %s. Address the previous arguments directly.", agent)
	return []core.Message{core.NewUserMessage(b.String())}
}

// verdictInput hands the synthesizer the full transcript.
func verdictInput(topic string, transcript []Turn) []core.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Synthesize this debate on: %s\n\nThe debate included:\n", topic)
	for _, turn := range transcript {
		fmt.Fprintf(&b, "\n%s: %s\n", turn.Agent, turn.Message.Text())
	}
	b.WriteString("\nProvide a brief synthesis: key points of agreement, irreconcilable differences, the most compelling argument, and what remains unresolved.")
	return []core.Message{core.NewUserMessage(b.String())}
}
