package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/billing"
	"fintrack/internal/config"
	"fintrack/internal/email"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	logger.Info("Starting fintrack API")

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

	// AMQP is optional; without it entry notifications are simply not sent.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, notifications disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized")
		}
	} else {
		logger.Info("AMQP disabled, entry notifications will not be sent")
	}

	sender := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SenderEmail, logger)
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	var google *auth.GoogleVerifier
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		logger.Info("Google sign-in enabled")
	} else {
		logger.Info("Google sign-in disabled, no client credentials provided")
	}

	var billingClient *billing.Client
	var webhookHandler *billing.WebhookHandler
	if cfg.StripeSecretKey != "" {
		billingClient = billing.NewClient(cfg.StripeSecretKey, cfg.StripePriceID)
		webhookHandler = billing.NewWebhookHandler(repo, cfg.StripeWebhookSecret, logger)
		logger.Info("Stripe billing enabled")
	} else {
		logger.Info("Stripe billing disabled, no secret key provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:          services.NewAuthService(repo, hasher, tokens, sender, cfg.OTPExpiry, logger),
		Entries:       services.NewEntryService(repo, publisher, logger),
		Categories:    services.NewCategoryService(repo, logger),
		Rules:         services.NewRuleService(repo, logger),
		Reports:       services.NewReportService(repo, logger),
		Exports:       services.NewExportService(repo, logger),
		Notifications: services.NewNotificationService(repo, logger),

		Store:   repo,
		Tokens:  tokens,
		Google:  google,
		Billing: billingClient,
		Webhook: webhookHandler,
		Rates:   rates.NewClient(cfg.RatesURL, cfg.RatesCacheTTL, logger),

		FrontendURL: cfg.FrontendURL,
		Logger:      logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
