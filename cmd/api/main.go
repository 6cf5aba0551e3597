package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vannoorsab/visionEndeavorius/internal/api"
	"github.com/vannoorsab/visionEndeavorius/internal/blob"
	"github.com/vannoorsab/visionEndeavorius/internal/config"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/internal/outbox"
	"github.com/vannoorsab/visionEndeavorius/internal/persistence/memory"
	"github.com/vannoorsab/visionEndeavorius/internal/persistence/postgres"
	"github.com/vannoorsab/visionEndeavorius/internal/persistence/redis"
	httptransport "github.com/vannoorsab/visionEndeavorius/internal/transport/http"
	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

type store interface {
	ledger.Repository
	identity.ProfileStore
	identity.CredentialStore
}

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

	var (
		repo store
		pool *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.AutoMigrate {
			if err := postgres.Migrate(cfg.PostgresURL); err != nil {
				logger.Fatal("failed to apply migrations", "error", err)
			}
		}
		pool, err = postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", "error", err)
		}
		defer pool.Close()
		repo = postgres.NewStore(pool)
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		repo = memory.NewStore()
	}

	var sessionStore identity.SessionStore = memory.NewSessionStore()
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		defer client.Close()
		sessionStore = redis.NewSessionStore(client)
	}

	routerCfg := api.RouterConfig{
		Tokens:         auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL},
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}

	var blobs identity.BlobStore
	if cfg.GCSBucket != "" {
		gcs, err := blob.NewGCS(ctx, cfg.GCSBucket, cfg.GCSPublicBaseURL, cfg.GCSCredentialsFile)
		if err != nil {
			logger.Fatal("failed to open bucket", "error", err, "bucket", cfg.GCSBucket)
		}
		defer gcs.Close()
		blobs = gcs
	} else {
		mem := blob.NewMemory("/blobs")
		routerCfg.Blobs = mem
		blobs = mem
	}

	provider := identity.NewLocalProvider(repo, cfg.BcryptCost)
	sessions := identity.NewSessions(provider, sessionStore, repo, cfg.JWTTTL, logger.With("component", "sessions"))
	defer sessions.Close()
	gateway := identity.NewGateway(provider, repo, sessions, routerCfg.Tokens,
		identity.WithBlobStore(blobs),
		identity.WithLogger(logger.With("component", "identity")),
	)

	handler, err := api.NewHandler(gateway, ledger.NewService(repo), api.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build handler", "error", err)
	}

	var dispatcher *outbox.Dispatcher
	if pool != nil {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, logger)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	}

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), api.NewRouter(handler, routerCfg))

	go func() {
		logger.Info("volunteer api listening", "address", cfg.HTTPAddress, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
