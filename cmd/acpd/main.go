// Command acpd hosts model-backed specialist agents behind the wire
// protocol: it loads configuration, builds the configured model backend,
// registers the persona agents, discovers peers, and serves until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	acpagents "github.com/zhound420/acp-agents-skill"
	"github.com/zhound420/acp-agents-skill/config"
	"github.com/zhound420/acp-agents-skill/logging"
	"github.com/zhound420/acp-agents-skill/model"
	"github.com/zhound420/acp-agents-skill/model/anthropic"
	"github.com/zhound420/acp-agents-skill/model/openai"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	// Optional .env file for API keys during local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "acpd:", err)
		os.Exit(1)
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false)

	backend, err := buildBackend(cfg.Backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, "acpd:", err)
		os.Exit(1)
	}
	logger.Info("model backend ready", "provider", backend.Info().Provider, "model", backend.Info().Name)

	hub := acpagents.New(func(o *acpagents.Options) {
		o.Name = cfg.Server.Name
		o.Description = cfg.Server.Description
		o.Logger = logger
	})
	for _, p := range personas {
		hub.RegisterLocal(p.name, model.NewHandler(backend, p.system), p.capabilities...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	discoverPeers(ctx, hub, cfg.Peers, logger)

	if err := hub.Serve(ctx, cfg.Server.Addr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func buildBackend(cfg config.BackendConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = sdk.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
		}), nil
	case "mock":
		return model.NewMockModel("acpd-mock"), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// discoverPeers probes each configured peer, logging failures without
// aborting startup. An unreachable peer can be discovered again later.
func discoverPeers(ctx context.Context, hub *acpagents.Hub, peers []string, logger logging.Logger) {
	for _, peer := range peers {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		descriptors, err := hub.Discover(probeCtx, peer)
		cancel()
		if err != nil {
			logger.Warn("peer discovery failed", "endpoint", peer, "error", err)
			continue
		}
		logger.Info("peer agents discovered", "endpoint", peer, "count", len(descriptors))
	}
}
