// Package config loads process configuration for the docsbridge server.
//
// Sources, in priority order: built-in defaults, an optional JSONC config
// file, then DOCSBRIDGE_* environment variables. Command-line flags are
// applied on top by the cmd layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// DefaultBaseURL is the documentation API consumed by the tools.
const DefaultBaseURL = "https://api.libdocs.dev/v2"

// Config holds the full process configuration.
type Config struct {
	// Transport selects the binding: "stdio" or "http".
	Transport string `json:"transport"`

	// Port is the preferred listening port for the HTTP transport. When it
	// is taken, the server probes the next sequential ports.
	Port int `json:"port"`

	// Hostname is the listening address for the HTTP transport.
	Hostname string `json:"hostname"`

	// APIKey is the default upstream credential. Only valid with the stdio
	// transport, where the whole session belongs to one caller; HTTP callers
	// supply their own credential per exchange.
	APIKey string `json:"apiKey"`

	// BaseURL points at the upstream documentation API.
	BaseURL string `json:"baseUrl"`

	// LogLevel is the minimum log level (debug, info, warn, error, fatal).
	LogLevel string `json:"logLevel"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transport: TransportStdio,
		Port:      8080,
		Hostname:  "127.0.0.1",
		BaseURL:   DefaultBaseURL,
		LogLevel:  "info",
	}
}

// Load builds a Config from defaults, the optional config file, and the
// environment.
func Load() (*Config, error) {
	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg := Default()

	path := os.Getenv("DOCSBRIDGE_CONFIG")
	if path == "" {
		for _, candidate := range []string{"docsbridge.json", "docsbridge.jsonc"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// loadFile merges a JSONC config file into cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonc.ToJSON(data), cfg)
}

// applyEnv applies DOCSBRIDGE_* environment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCSBRIDGE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("DOCSBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DOCSBRIDGE_HOSTNAME"); v != "" {
		cfg.Hostname = v
	}
	if v := os.Getenv("DOCSBRIDGE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DOCSBRIDGE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DOCSBRIDGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
		if c.APIKey != "" {
			// HTTP exchanges carry their own credential headers; a baked-in
			// default would silently authenticate unrelated callers.
			return fmt.Errorf("a default api key cannot be combined with the http transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base url must not be empty")
	}
	return nil
}
