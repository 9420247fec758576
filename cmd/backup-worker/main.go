// backup-worker consumes the record-change feed and writes periodic
// JSON and CSV backups of the store to the export directory. Changes
// are debounced: the worker marks the store dirty on every message and
// exports at most once per interval.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finguard/internal/amqp"
	"finguard/internal/config"
	"finguard/internal/export"
	applog "finguard/internal/log"
	"finguard/internal/storage"
	"finguard/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("backup-worker")
	applog.SetDefault(logger)

	logger.Info("Starting backup-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}
	if cfg.DataBackend != storage.SQLiteBackend {
		logger.Error("Backup worker needs the sqlite backend to see the server's data", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	backend, err := storage.NewBackend(logger.Logger, cfg.DataBackend, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	if backend.Cleanup != nil {
		defer backend.Cleanup()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(backend.KV, nil)
	st.Load(ctx)

	var dirty atomic.Bool
	dirty.Store(true) // always take one backup on startup

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeRecordChanges(gctx, func(msg *amqp.RecordChange) error {
			logger.Debug("Record change received", "collection", msg.Collection, "op", msg.Op, "id", msg.ID)
			dirty.Store(true)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.BackupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if !dirty.Swap(false) {
					continue
				}
				if err := runBackup(gctx, st, cfg.ExportDir, logger); err != nil {
					logger.Error("Backup failed", "error", err)
					dirty.Store(true) // retry on the next tick
				}
			}
		}
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// runBackup reloads the store from the shared durable layer and writes
// one JSON dump plus one transactions CSV.
func runBackup(ctx context.Context, st *store.Store, exportDir string, logger *applog.Logger) error {
	st.Load(ctx)
	snap := st.Snapshot()

	jsonPath, err := export.ToJSON(snap, "finguard_backup", exportDir)
	if err != nil {
		return err
	}
	csvPath, err := export.TransactionsToCSV(snap.Transactions, "transactions", exportDir)
	if err != nil {
		return err
	}

	logger.Info("Backup written",
		"json", jsonPath,
		"csv", csvPath,
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets),
		"goals", len(snap.Goals))
	return nil
}
