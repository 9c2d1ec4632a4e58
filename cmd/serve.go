package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gridscape/internal/observability"
	"gridscape/internal/server"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the Gridscape API server with the specified configuration.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	// Server flags
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "server mode (debug/release/test)")

	// Gateway flags
	flags.String("provider", "openrouter", "gateway provider (openrouter/openai/azure/ark)")
	flags.StringSlice("models", DefaultModels, "model cascade, tried in order")
	flags.Duration("attempt-timeout", 0, "per-model attempt timeout (default from config)")

	// Log flags
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", flags.Lookup("host"))
	_ = viper.BindPFlag("server.port", flags.Lookup("port"))
	_ = viper.BindPFlag("server.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("gateway.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("cascade.models", flags.Lookup("models"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if d, _ := cmd.Flags().GetDuration("attempt-timeout"); d > 0 {
		cfg.Cascade.AttemptTimeout = d
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if !cfg.Gateway.HasAPIKey() {
		log.Warn().Msg("gateway API key missing, set OPENROUTER_API_KEY or GRIDSCAPE_GATEWAY_API_KEY")
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sentry (可选)
	sentryEnabled, err := observability.InitSentry(&cfg.Sentry, Version)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Sentry")
	}
	if sentryEnabled {
		log.Info().Str("environment", cfg.Sentry.Environment).Msg("sentry initialized")
		defer sentry.Flush(observability.SentryFlushTimeout)
	}

	recorder, flush := observability.Recorders(ctx, cfg, sentryEnabled)
	defer flush(context.Background())

	// Create server
	srv, err := server.New(ctx, cfg, recorder, server.WithSentry(sentryEnabled))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("version", Version).
		Msg("starting server")

	return srv.Run(ctx, addr)
}
