package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/amqp"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/cli"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/config"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/sheets"
	gsheet "github.com/AKASHZENDEKAR/smart-expense-tracker/internal/sheets/google"
	memsheet "github.com/AKASHZENDEKAR/smart-expense-tracker/internal/sheets/memory"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting spend-worker")

	cfg := cli.MustLoadConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Reconcile reads the same database the API server writes.
	var store ports.ExpenseStore
	if cfg.DataBackend == config.BackendSQLite {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.WithLogger(logger))
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
	} else {
		logger.Info("Reconcile disabled, the worker only reads sqlite", "backend", cfg.DataBackend)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exporter sheets.ExpenseExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memsheet.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(exporter, store, logger)

	logger.Info("Performing startup reconcile")
	if _, _, err := syncWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err.Error())
	}

	go func() {
		if err := amqpClient.Consume(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
		}
		cancel()
	}()

	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := syncWorker.Reconcile(ctx); err != nil {
					logger.Error("Periodic reconcile failed",
						log.NewFields().WithOperation(log.OpSync).WithError(err).ToSlice()...)
				}
			}
		}
	}()

	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		cancel()
	})

	select {
	case <-sigCtx.Done():
		<-done
	case <-ctx.Done():
		logger.Info("Consumer stopped, shutting down")
	}
	logger.Info("Worker shutdown complete")
}
