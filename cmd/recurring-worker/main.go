package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, continuing without notifications", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	materializer := services.NewMaterializer(repo, repo, publisher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runBatch := func() {
		result, err := materializer.Run(ctx, time.Now())
		if err != nil {
			logger.Error("Materializer batch failed", log.FieldError, err)
			return
		}
		logger.Info("Materializer batch complete",
			"processed", result.Processed,
			"failed", result.Failed)
	}

	// Catch up on anything that came due while the worker was down.
	logger.Info("Running startup batch")
	runBatch()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CronSpec, runBatch); err != nil {
		logger.Error("Invalid cron spec", log.FieldError, err, "spec", cfg.CronSpec)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Scheduler started", "spec", cfg.CronSpec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()

	// Wait for an in-flight batch to finish before exiting.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
