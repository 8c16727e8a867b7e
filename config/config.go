// Package config loads daemon configuration from a TOML file with
// environment variable overrides for deploy-time settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ServerConfig names the host and where it listens.
type ServerConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Addr        string `toml:"addr"`
}

// BackendConfig selects the model backend hosted agents run on.
type BackendConfig struct {
	// Provider is "openai", "anthropic" or "mock".
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	// BaseURL points the openai provider at a compatible server, such as
	// a local ollama instance.
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full daemon configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Backend BackendConfig `toml:"backend"`
	// Peers are endpoints probed for agent metadata at startup.
	Peers []string  `toml:"peers"`
	Log   LogConfig `toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name: "acp-host",
			Addr: ":8700",
		},
		Backend: BackendConfig{
			Provider: "mock",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. An empty path skips the file and loads defaults
// plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays ACP_* environment variables. API keys in particular
// belong in the environment rather than the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ACP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ACP_NAME"); v != "" {
		cfg.Server.Name = v
	}
	if v := os.Getenv("ACP_BACKEND_PROVIDER"); v != "" {
		cfg.Backend.Provider = v
	}
	if v := os.Getenv("ACP_BACKEND_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("ACP_BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("ACP_BACKEND_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv("ACP_PEERS"); v != "" {
		cfg.Peers = splitList(v)
	}
	if v := os.Getenv("ACP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ACP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) validate() error {
	switch c.Backend.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown backend provider %q", c.Backend.Provider)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}
