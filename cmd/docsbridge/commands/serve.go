package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/docsbridge/internal/config"
	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/tools"
	"github.com/opencode-ai/docsbridge/internal/transport"
	"github.com/opencode-ai/docsbridge/internal/upstream"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: logging.ParseLevel(cfg.LogLevel)})
	logging.Info().Str("version", Version).Str("transport", cfg.Transport).Msg("starting docsbridge")
	warnOnSuspectKey(cfg.APIKey)

	client := upstream.New(cfg.BaseURL)
	registry, err := tools.DefaultRegistry(client)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case config.TransportHTTP:
		sessions := transport.NewSessionTable()
		srv := tools.NewServer(Version, registry, sessions.Hooks())
		binding := transport.NewHTTP(transport.HTTPConfig{
			Hostname: cfg.Hostname,
			Port:     cfg.Port,
			APIKey:   cfg.APIKey,
		}, srv, sessions)
		return binding.Run(ctx)
	default:
		srv := tools.NewServer(Version, registry, nil)
		return transport.NewStdio(srv, cfg.APIKey).Run(ctx)
	}
}
