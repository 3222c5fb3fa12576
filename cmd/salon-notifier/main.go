package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"salon/internal/amqp"
	"salon/internal/backend"
	"salon/internal/backend/factory"
	"salon/internal/config"
	"salon/internal/export"
	applog "salon/internal/log"
	"salon/internal/sms"
	"salon/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.NewFromEnv(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting salon-notifier")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := factory.New(logger.Logger).CreateBackend(ctx, factory.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		RESTBaseURL:  cfg.RESTBaseURL,
		RESTAPIKey:   cfg.RESTAPIKey,
		SeedStaff:    cfg.SeedStaff,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	sender := sms.NewSender(sms.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	})
	logger.Info("SMS sender initialized", "provider", sender.ProviderID())

	reminder := worker.NewReminderWorker(result.Backend, sender, cfg.SalonName, cfg.ReminderInterval, cfg.ReminderLookahead)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reminder.Run(gctx)
	})

	// Daily bookkeeping rows go to Google Sheets when configured.
	if os.Getenv("GOOGLE_SPREADSHEET_ID") != "" {
		sheets, err := export.NewSheetsFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Sheets client", "error", err)
			os.Exit(1)
		}
		bookkeeping := worker.NewBookkeepingWorker(result.Backend, sheets)
		g.Go(func() error {
			return bookkeeping.Run(gctx)
		})
		logger.Info("Daily bookkeeping enabled")
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeEvents(gctx, reminder.HandleEvent)
		})
		logger.Info("Consuming appointment events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic scans only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notifier error", "error", err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped gracefully")
}
