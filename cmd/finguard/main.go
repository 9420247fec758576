package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finguard/internal/amqp"
	"finguard/internal/config"
	apphttp "finguard/internal/http"
	applog "finguard/internal/log"
	"finguard/internal/profile"
	"finguard/internal/storage"
	"finguard/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("finguard")
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := storage.NewBackend(slog.Default(), cfg.DataBackend, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if backend.Cleanup != nil {
		defer backend.Cleanup()
	}

	// The change feed is optional; without a broker the store simply
	// skips publishing.
	var notifier store.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
		logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Change feed disabled - no AMQP_URL provided")
	}

	st := store.New(backend.KV, notifier)
	st.SetDefaultCurrency(cfg.Currency)
	st.Load(ctx)
	if cfg.SeedDemo {
		if err := st.SeedDemo(ctx, time.Now().Format("2006-01")); err != nil {
			logger.Warn("Demo seed failed", "error", err)
		} else {
			logger.Info("Demo data seeded")
		}
	}

	var profiles *profile.Client
	if cfg.ProfileBaseURL != "" {
		profiles = profile.NewClient(cfg.ProfileBaseURL)
		logger.Info("Profile service configured", "base_url", cfg.ProfileBaseURL)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, profiles, cfg.ExportDir, logger.WithComponent("http"))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finguard server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
