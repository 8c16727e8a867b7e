// Package server exposes locally hosted agents over the wire protocol:
// metadata discovery documents, the agent list, and the /runs dispatch
// endpoint in both sync and stream modes. Requests are dispatched through
// the same Router the client side uses, so hosted and remote runs share one
// lifecycle implementation.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
	"github.com/zhound420/acp-agents-skill/registry"
	"github.com/zhound420/acp-agents-skill/router"
)

// HeaderRunID carries the run identifier of a stream response so clients
// can correlate before the first event arrives.
const HeaderRunID = "Run-ID"

// Options configures the server.
type Options struct {
	// Name is the host identity served in the metadata document.
	Name string
	// Description is the host description served in the metadata document.
	Description string
	// Logger is the logger instance.
	Logger logging.Logger
}

// Server hosts agents from a registry behind the protocol endpoints.
type Server struct {
	name        string
	description string
	reg         *registry.Registry
	router      *router.Router
	logger      logging.Logger
	echo        *echo.Echo
}

// New creates a protocol server for the given registry and router.
func New(reg *registry.Registry, rt *router.Router, optFns ...func(o *Options)) *Server {
	opts := Options{
		Name: "acp-host",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		name:        opts.Name,
		description: opts.Description,
		reg:         reg,
		router:      rt,
		logger:      logging.OrNoOp(opts.Logger),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET(registry.WellKnownPath, s.handleWellKnown)
	e.GET("/agents", s.handleAgents)
	e.POST("/runs", s.handleRun)
	e.GET("/health", s.handleHealth)

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for mounting under a custom listener.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr and serves until Shutdown is called. It blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("protocol server listening", "addr", addr, "name", s.name)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("protocol server shutting down")
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// hostMetadata assembles the host document: the host identity plus the
// union of all hosted agent capabilities and the per-agent documents.
func (s *Server) hostMetadata() registry.Metadata {
	agents := s.agentMetadata()

	seen := make(map[string]struct{})
	var caps []string
	for _, a := range agents {
		for _, cap := range a.Capabilities {
			if _, ok := seen[cap]; ok {
				continue
			}
			seen[cap] = struct{}{}
			caps = append(caps, cap)
		}
	}
	if caps == nil {
		caps = []string{}
	}

	return registry.Metadata{
		Name:               s.name,
		Description:        s.description,
		Capabilities:       caps,
		InputContentTypes:  []string{"text/plain"},
		OutputContentTypes: []string{"text/plain"},
		Agents:             agents,
	}
}

func (s *Server) agentMetadata() []registry.Metadata {
	descriptors := s.reg.List()
	agents := make([]registry.Metadata, 0, len(descriptors))
	for _, d := range descriptors {
		caps := d.Capabilities
		if caps == nil {
			caps = []string{}
		}
		agents = append(agents, registry.Metadata{
			Name:               d.Name,
			Description:        d.Description,
			Capabilities:       caps,
			InputContentTypes:  []string{"text/plain"},
			OutputContentTypes: []string{"text/plain"},
		})
	}
	return agents
}

func (s *Server) handleWellKnown(c echo.Context) error {
	return c.JSON(http.StatusOK, s.hostMetadata())
}

func (s *Server) handleAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"agents": s.agentMetadata()})
}

// statusOf maps an error classification to the HTTP status of the /runs
// response envelope.
func statusOf(kind core.Kind) int {
	switch kind {
	case core.KindAgentNotFound:
		return http.StatusNotFound
	case core.KindTimeout:
		return http.StatusGatewayTimeout
	case core.KindBackendUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
