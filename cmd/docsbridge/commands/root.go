// Package commands provides the CLI for the docsbridge MCP server.
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/docsbridge/internal/config"
	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/upstream"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Flag values. Applied over the loaded config only when explicitly set.
var (
	flagTransport string
	flagPort      int
	flagHostname  string
	flagAPIKey    string
	flagBaseURL   string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "docsbridge",
	Short: "MCP server for up-to-date library documentation",
	Long: `docsbridge is an MCP server that gives coding agents two tools:
'resolve-library-id' to find a library by name, and 'get-library-docs'
to fetch current documentation for it.

By default it serves a single session over stdio. Run with
'--transport http' to serve concurrent sessions over streamable HTTP.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagTransport, "transport", "t", config.TransportStdio, "Transport to use (stdio or http)")
	f.IntVarP(&flagPort, "port", "p", 8080, "Port to listen on (http transport)")
	f.StringVar(&flagHostname, "hostname", "127.0.0.1", "Hostname to listen on (http transport)")
	f.StringVar(&flagAPIKey, "api-key", "", "API key for the documentation service")
	f.StringVar(&flagBaseURL, "base-url", "", "Base URL of the documentation service")
	f.StringVar(&flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("docsbridge %s (%s)\n", Version, BuildTime))
}

// loadConfig resolves the effective configuration: defaults, then config
// file, then environment, then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = flagTransport
	}
	if flags.Changed("port") {
		cfg.Port = flagPort
	}
	if flags.Changed("hostname") {
		cfg.Hostname = flagHostname
	}
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// warnOnSuspectKey flags keys that do not look like service credentials.
// The call still proceeds, the upstream is the authority on validity.
func warnOnSuspectKey(key string) {
	if key == "" {
		return
	}
	if !strings.HasPrefix(key, upstream.APIKeyPrefix) {
		logging.Warn().Msgf("API key does not start with %q, it may not be a valid key", upstream.APIKeyPrefix)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
