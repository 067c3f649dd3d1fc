package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"orbit/internal/amqp"
	"orbit/internal/bank"
	"orbit/internal/config"
	applog "orbit/internal/log"
	"orbit/internal/notify"
	"orbit/internal/services"
	"orbit/internal/storage"
	"orbit/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig()).WithComponent("worker")
	applog.SetDefault(logger)

	logger.Info("Starting orbit-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP carries transaction events from importer/matcher to the push
	// notification consumer.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var sources []bank.Source
	if cfg.MonzoEnabled() {
		sources = append(sources, bank.NewMonzoClient(cfg.MonzoAccessToken, cfg.MonzoAccountID, cfg.MonzoBaseURL))
		logger.Info("Monzo import source enabled")
	}
	if cfg.GoCardlessEnabled() {
		sources = append(sources, bank.NewGoCardlessClient(cfg.GoCardlessSecretID, cfg.GoCardlessSecretKey, cfg.GoCardlessAccountID, cfg.GoCardlessBaseURL))
		logger.Info("GoCardless import source enabled")
	}
	if len(sources) == 0 {
		logger.Warn("No bank sources configured - imports will be no-ops")
	}

	importer := bank.NewImporter(sources, repo, amqpClient, cfg.ImportWindow)
	matcher := services.NewAutoMatcher(repo, amqpClient)
	importWorker := worker.NewImportWorker(importer, matcher, cfg.ImportInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return importWorker.Run(ctx)
	})

	if cfg.PushWebhookURL != "" {
		pusher := notify.NewPusher(cfg.PushWebhookURL)
		g.Go(func() error {
			return amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEvent) error {
				return pusher.HandleTransactionEvent(ctx, msg)
			})
		})
		logger.Info("Push notifications enabled", "webhook", cfg.PushWebhookURL)
	} else {
		logger.Info("Push notifications disabled - no PUSH_WEBHOOK_URL provided")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
