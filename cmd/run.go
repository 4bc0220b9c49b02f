package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gigacal/gigacal/internal/calendar"
	"github.com/gigacal/gigacal/internal/config"
	"github.com/gigacal/gigacal/internal/gigachat"
	"github.com/gigacal/gigacal/internal/instrumentation"
	"github.com/gigacal/gigacal/internal/logging"
	"github.com/gigacal/gigacal/internal/server"
	"github.com/gigacal/gigacal/internal/storage"
	"github.com/gigacal/gigacal/internal/telegram"
)

func newRunCmd() *cobra.Command {
	var (
		debugMode       bool
		credentialsFile string
		valkeyURL       string
		metricsEnabled  bool
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		Long: `Start the bot and poll Telegram for updates until interrupted.

Configuration is read from the environment (a .env file in the working
directory is honored):

  TELEGRAM_BOT_TOKEN        Telegram Bot API token (required)
  GIGACHAT_AUTH_KEY         GigaChat authorization key (required)
  GIGACHAT_MODEL            GigaChat model name
  GOOGLE_CREDENTIALS_FILE   Google OAuth client secrets JSON
  VALKEY_URL                Valkey server address (host:port)
  DEFAULT_TIMEZONE          IANA timezone for created events

Flags override their environment counterparts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("debug") {
				cfg.Debug = debugMode
			}
			if cmd.Flags().Changed("credentials-file") {
				cfg.GoogleCredentialsFile = credentialsFile
			}
			if cmd.Flags().Changed("valkey-url") {
				cfg.ValkeyURL = valkeyURL
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.MetricsEnabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			return runBot(cfg)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging. Can also use DEBUG env var.")
	cmd.Flags().StringVar(&credentialsFile, "credentials-file", config.DefaultCredentialsFile, "Path to Google OAuth client secrets JSON. Can also use GOOGLE_CREDENTIALS_FILE env var.")
	cmd.Flags().StringVar(&valkeyURL, "valkey-url", config.DefaultValkeyURL, "Valkey server address (host:port). Can also use VALKEY_URL env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runBot(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		Enabled:        cfg.MetricsEnabled,
		ServiceName:    "gigacal",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled && provider.Enabled() {
		metricsServer = server.NewMetricsServer(cfg.MetricsAddr, logger)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	store, err := storage.NewValkeyStore(storage.ValkeyConfig{
		URL:      cfg.ValkeyURL,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	calendarService := calendar.NewService(cfg.GoogleCredentialsFile, store, cfg.Timezone, logger)

	gigachatClient, err := gigachat.NewClient(gigachat.ClientConfig{
		AuthKey: cfg.GigaChatAuthKey,
		Model:   cfg.GigaChatModel,
		Logger:  logging.NewSlogAdapter(logging.WithService(logger, "gigachat")),
	})
	if err != nil {
		return fmt.Errorf("failed to create gigachat client: %w", err)
	}

	bot, err := telegram.New(cfg.TelegramToken, calendarService, gigachatClient, provider.Metrics(), logger)
	if err != nil {
		return err
	}

	logger.Info("starting bot",
		"version", version,
		"username", bot.Username(),
		"model", cfg.GigaChatModel,
		"timezone", cfg.Timezone,
		"metrics_enabled", cfg.MetricsEnabled)

	return bot.Run(ctx)
}
