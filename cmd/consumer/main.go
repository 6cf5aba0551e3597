package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/vannoorsab/visionEndeavorius/internal/config"
	"github.com/vannoorsab/visionEndeavorius/internal/consumer"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
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

	if cfg.StoreBackend != config.BackendPostgres {
		logger.Fatal("the completion consumer requires STORE_BACKEND=postgres", "store", cfg.StoreBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", "error", err)
	}
	defer pool.Close()

	participation := ledger.NewService(postgres.NewStore(pool))
	handler := consumer.Chain(
		consumer.NewArchiveHandler(pool),
		consumer.NewCompletionHandler(participation, logger),
	)

	metricsSrv := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), promhttp.Handler())
	go func() {
		logger.Info("consumer metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})
		topicLogger := logger.With("topic", topic, "group", cfg.ConsumerGroupID)
		proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(topicLogger))

		wg.Add(1)
		go func(r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			topicLogger.Info("consumer started")
			if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				topicLogger.Error("consumer stopped with error", "error", err)
			}
		}(reader)
	}

	<-ctx.Done()
	logger.Info("consumer shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}

	wg.Wait()
}
