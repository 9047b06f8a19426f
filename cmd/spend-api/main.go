package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/cli"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/config"
	apphttp "github.com/AKASHZENDEKAR/smart-expense-tracker/internal/http"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentHTTP)
	cfg := cli.MustLoadConfig(logger)

	if cfg.DataBackend == config.BackendRemote {
		logger.Error("The API server needs a local backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	b, err := backend.NewFactory(backend.WithLogger(logger)).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.NewFields().WithOperation(log.OpStartup).WithError(err).ToSlice()...)
		os.Exit(1)
	}

	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set, the API is open to any client")
	}

	srv := apphttp.NewServer(":"+cfg.Port, b,
		apphttp.WithLogger(logger),
		apphttp.WithAPIToken(cfg.APIToken),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithCacheTTL(cfg.CacheTTL),
	)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting spend API server", "port", cfg.Port, "backend", b.Kind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		_ = b.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
