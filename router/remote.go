package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
)

// remoteCapability issues protocol requests against a remote endpoint. The
// HTTP client's transport pools connections per endpoint; cancelled or
// failed requests release their connection through body close.
type remoteCapability struct {
	agent       string
	endpoint    string
	client      *http.Client
	maxAttempts int
	backoff     backoffPolicy
	bufSize     int
	logger      logging.Logger
}

// call executes the run in sync wire mode. Transient transport failures are
// retried with exponential backoff up to the attempt cap; the call has
// produced no externally visible output before its response arrives, so the
// retry is idempotent-safe.
func (c *remoteCapability) call(ctx context.Context, run *core.Run) (*core.Run, error) {
	final := *run

	body, err := json.Marshal(core.RunRequest{AgentName: c.agent, Input: run.Input, Mode: core.ModeSync})
	if err != nil {
		return nil, core.WrapError(core.KindInternal, c.agent, err)
	}

	resp, err := c.post(ctx, body, "application/json")
	if err != nil {
		final.Fail(failureOf(c.agent, err))
		return &final, final.Err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		final.Fail(core.WrapError(core.KindBackendUnavailable, c.agent, err))
		return &final, final.Err
	}

	var rr core.RunResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		final.Fail(core.Errorf(core.KindMalformedResponse, c.agent,
			"undecodable sync response: %v: %s", err, snippet(raw)))
		return &final, final.Err
	}

	if rr.Status == core.StateCompleted {
		final.State = core.StateInProgress
		final.Complete(rr.Output)
		return &final, nil
	}

	ferr := rr.Error
	if ferr == nil {
		ferr = core.Errorf(core.KindMalformedResponse, c.agent,
			"backend reported status %q without error detail: %s", rr.Status, snippet(raw))
	}
	final.Fail(ferr)
	return &final, final.Err
}

// stream executes the run in stream wire mode, decoding the server's event
// sequence. Establishing the request is retried like a sync call. Once the
// first event has been read there is no transparent retry, since replaying a
// partially streamed run would duplicate output; any disconnect is surfaced
// as a synthesized terminal run.failed event.
func (c *remoteCapability) stream(ctx context.Context, run *core.Run) (<-chan core.Event, error) {
	body, err := json.Marshal(core.RunRequest{AgentName: c.agent, Input: run.Input, Mode: core.ModeStream})
	if err != nil {
		return nil, core.WrapError(core.KindInternal, c.agent, err)
	}

	resp, err := c.post(ctx, body, "text/event-stream")
	if err != nil {
		return nil, failureOf(c.agent, err)
	}

	events := make(chan core.Event, c.bufSize)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		c.relay(ctx, run, resp.Body, events)
	}()
	return events, nil
}

// relay decodes SSE data lines into events, verifying per-run sequence
// continuity and guaranteeing exactly one terminal event reaches the
// consumer even when the backend disconnects mid-stream.
func (c *remoteCapability) relay(ctx context.Context, run *core.Run, body io.Reader, events chan<- core.Event) {
	next := 0

	synthesize := func(cerr *core.Error) {
		failed := *run
		failed.Fail(cerr)
		ev := core.Event{
			RunID:    run.ID,
			Sequence: next,
			Type:     core.EventRunFailed,
			Payload:  core.Payload{Run: &failed},
		}
		// A slow consumer must still receive the terminal event; only after
		// cancellation does delivery degrade to a best-effort attempt.
		select {
		case events <- ev:
			return
		case <-ctx.Done():
		}
		select {
		case events <- ev:
		default:
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var ev core.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			synthesize(core.Errorf(core.KindMalformedResponse, c.agent,
				"undecodable event: %v: %s", err, snippet([]byte(data))))
			return
		}
		if ev.Sequence != next {
			synthesize(core.Errorf(core.KindMalformedResponse, c.agent,
				"event sequence gap: expected %d, got %d", next, ev.Sequence))
			return
		}
		// The remote side numbers its own run; the caller knows the run by
		// the id minted at dispatch.
		ev.RunID = run.ID
		if ev.Payload.Run != nil {
			ev.Payload.Run.ID = run.ID
		}
		next++

		select {
		case events <- ev:
		case <-ctx.Done():
			synthesize(core.FromContext(c.agent, ctx.Err()))
			return
		}

		if ev.Type.Terminal() {
			return
		}
	}

	// Reaching here means the stream ended without a terminal event.
	if err := ctx.Err(); err != nil {
		synthesize(core.FromContext(c.agent, err))
		return
	}
	reason := "stream ended without terminal event"
	if err := scanner.Err(); err != nil {
		reason = fmt.Sprintf("stream broken: %v", err)
	}
	synthesize(core.Errorf(core.KindBackendUnavailable, c.agent, "%s", reason))
}

// post issues the runs request with retry on transient failures.
func (c *remoteCapability) post(ctx context.Context, body []byte, accept string) (*http.Response, error) {
	url := strings.TrimRight(c.endpoint, "/") + "/runs"

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying remote call", "agent", c.agent, "attempt", attempt+1)
			if err := c.backoff.wait(ctx, attempt); err != nil {
				return nil, core.FromContext(c.agent, err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, core.WrapError(core.KindInternal, c.agent, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", accept)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, core.FromContext(c.agent, ctxErr)
			}
			// Transport-level failure (connection refused, reset): transient.
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case transientStatus(resp.StatusCode):
			lastErr = fmt.Errorf("backend returned status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, core.Errorf(core.KindAgentNotFound, c.agent, "endpoint %s does not host this agent", c.endpoint)
		default:
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, core.Errorf(core.KindMalformedResponse, c.agent,
				"backend returned status %d: %s", resp.StatusCode, snippet(raw))
		}
	}

	return nil, core.WrapError(core.KindBackendUnavailable, c.agent,
		fmt.Errorf("no response after %d attempts: %w", c.maxAttempts, lastErr))
}

// failureOf narrows an error from post to the classification carried by the
// failed run.
func failureOf(agent string, err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	return core.WrapError(core.KindBackendUnavailable, agent, err)
}

func snippet(raw []byte) string {
	s := string(raw)
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
