package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"helpdesk_digest/internal/config"
	"helpdesk_digest/internal/notifier"
	"helpdesk_digest/internal/publisher"
	"helpdesk_digest/internal/runner"
	"helpdesk_digest/internal/service"
	"helpdesk_digest/internal/source/helpdesk"
	"helpdesk_digest/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger := setupLogger("info", os.Stdout)

	configPath := os.Getenv("DIGEST_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		return 1
	}

	logOut := io.Writer(os.Stdout)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open log file", "path", cfg.LogFile, "error", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger = setupLogger(cfg.LogLevel, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize helpdesk source
	source := helpdesk.New(helpdesk.Config{
		BaseURL:  cfg.Helpdesk.APIBaseURL(),
		User:     cfg.Helpdesk.User,
		Password: cfg.Helpdesk.Password,
		Locale:   cfg.Helpdesk.Locale,
		Timeout:  cfg.Helpdesk.Timeout,
	}, logger)

	telegram, err := notifier.NewTelegram(notifier.Config{
		Token:     cfg.Telegram.Token,
		ChatID:    cfg.Telegram.ChannelID,
		ServerURL: cfg.Telegram.ServerURL,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize telegram", "error", err)
		return 1
	}

	store := storage.NewWatermarkStore(storage.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          storageDSN(cfg.Storage),
		LookbackDays: cfg.Sync.LookbackDays,
	}, logger)

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return 1
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	digestService := service.NewDigestService(
		service.NewSyncService(source, logger),
		store,
		telegram,
		pub,
		logger,
	)

	logger.Info("starting helpdesk digest",
		"source", source.Name(),
		"storage", cfg.Storage.Driver,
		"events", cfg.RabbitMQ.Enabled,
	)

	if err := runner.New(digestService, cfg.Sync.Timeout, logger).Run(ctx); err != nil {
		return 1
	}
	return 0
}

func storageDSN(cfg config.StorageConfig) string {
	if cfg.Driver == storage.DriverPostgres {
		return cfg.Database.DSN()
	}
	return cfg.Path
}

func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}
