package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zhound420/acp-agents-skill/core"
)

type errorBody struct {
	Error *core.Error `json:"error"`
}

// handleRun dispatches POST /runs. Request-level problems (undecodable
// body, empty input, unknown agent) fail with a non-200 status before a run
// exists; once dispatch starts, sync mode always answers 200 with the
// terminal envelope and stream mode delivers the terminal state as the
// final event.
func (s *Server) handleRun(c echo.Context) error {
	var req core.RunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{
			Error: core.Errorf(core.KindMalformedResponse, "", "undecodable run request"),
		})
	}

	if err := core.ValidateInput(req.Input); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: asError(err)})
	}
	if _, err := s.reg.Lookup(req.AgentName); err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Error: asError(err)})
	}

	if req.Mode == core.ModeStream {
		return s.streamRun(c, req)
	}
	return s.syncRun(c, req)
}

func (s *Server) syncRun(c echo.Context, req core.RunRequest) error {
	ctx := c.Request().Context()

	run, err := s.router.Call(ctx, req.AgentName, req.Input)
	if err != nil && run == nil {
		ce := asError(err)
		return c.JSON(statusOf(ce.Kind), errorBody{Error: ce})
	}

	s.logger.Debug("sync run finished", "agent", req.AgentName, "run", run.ID, "state", string(run.State))
	return c.JSON(http.StatusOK, core.RunResponse{
		RunID:  run.ID,
		Status: run.State,
		Output: run.Output,
		Error:  run.Err,
	})
}

func (s *Server) streamRun(c echo.Context, req core.RunRequest) error {
	ctx := c.Request().Context()

	run, events, err := s.router.Stream(ctx, req.AgentName, req.Input)
	if err != nil {
		ce := asError(err)
		return c.JSON(statusOf(ce.Kind), errorBody{Error: ce})
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set(HeaderRunID, run.ID)
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to encode event", "run", run.ID, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
			// Client went away; the router observes the request context
			// cancellation and stops producing.
			s.logger.Debug("stream write failed", "run", run.ID, "error", err)
			return nil
		}
		flusher.Flush()
	}

	s.logger.Debug("stream run finished", "agent", req.AgentName, "run", run.ID)
	return nil
}

func asError(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	return core.WrapError(core.KindInternal, "", err)
}
