package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"salon/internal/amqp"
	"salon/internal/backend"
	"salon/internal/backend/factory"
	"salon/internal/config"
	apphttp "salon/internal/http"
	applog "salon/internal/log"
	"salon/internal/services"
	"salon/internal/session"
	"salon/internal/sms"
	"salon/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.NewFromEnv(applog.ComponentApp)
	applog.SetDefault(logger)

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

	// Seed the local admin account for the sqlite backend.
	if cfg.AdminEmail != "" {
		if repo, ok := result.Backend.(*storage.Repository); ok {
			if err := repo.EnsureUser(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				logger.Error("Failed to seed admin user", "error", err, "email", cfg.AdminEmail)
				os.Exit(1)
			}
		}
	}

	guard := session.NewGuard(
		backend.GuardAuth{Auth: result.Backend},
		session.NewFileStore(cfg.SessionFile),
		session.NewMemoryStore(),
	)

	sub, err := guard.SubscribeSignedOut(func() {
		logger.Info("Session terminated externally")
	})
	if err != nil {
		logger.Error("Failed to register signed-out listener", "error", err)
		os.Exit(1)
	}
	defer sub.Cancel()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	sender := sms.NewSender(sms.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	})
	logger.Info("SMS sender initialized", "provider", sender.ProviderID())

	appointments := services.NewAppointmentService(result.Backend, result.Backend, publisher, sender, cfg.SalonName)

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, guard, appointments, cfg.SalonName)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting salon server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
