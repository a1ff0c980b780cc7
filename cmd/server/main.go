package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pdxirc/internal/app"
	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/log"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		noHTTP     bool
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "pdxirc-server",
		Short:         "Run the pdxirc chat server",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info")

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Str("path", path).Msg("failed to load config")
				return err
			}
			cfg.UpdateFrom(overrides)
			if noHTTP {
				cfg.HTTPAddr = ""
			}
			if err := cfg.Validate(); err != nil {
				bootLogger.Error().Err(err).Msg("invalid config")
				return err
			}

			logger := log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize app")
				return err
			}

			logger.Info().
				Str("addr", cfg.Addr).
				Str("http_addr", cfg.HTTPAddr).
				Str("config", path).
				Msg("starting pdxirc server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.yaml")
	flags.StringVar(&overrides.Addr, "addr", "", "TCP listen address for the chat protocol")
	flags.StringVar(&overrides.HTTPAddr, "http-addr", "", "HTTP listen address for the API and WebSocket transport")
	flags.BoolVar(&noHTTP, "no-http", false, "disable the HTTP server")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite path for the persistent channel catalog")
	flags.IntVar(&overrides.MaxChannels, "max-channels", 0, "maximum number of channels (0 = unlimited)")
	flags.IntVar(&overrides.MaxMembers, "max-members", 0, "maximum members per channel (0 = unlimited)")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}
