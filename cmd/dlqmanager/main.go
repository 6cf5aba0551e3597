package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vannoorsab/visionEndeavorius/internal/config"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/internal/outbox"
	"github.com/vannoorsab/visionEndeavorius/internal/persistence/postgres"
	httptransport "github.com/vannoorsab/visionEndeavorius/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", "error", err)
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, logger, cfg.DLQMaxRetries, cfg.DLQBaseDelay)

	metricsSrv := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), promhttp.Handler())
	go func() {
		logger.Info("dlq manager metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("dlq manager started", "interval", cfg.DLQPollInterval, "max_retries", cfg.DLQMaxRetries)
	manager.Run(ctx, cfg.DLQPollInterval, cfg.DLQBatchSize)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
}
