package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, BackendPostgres, cfg.StoreBackend)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, []string{"participation_completions"}, cfg.ConsumerTopics)
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", " Memory ")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("DLQ_BASE_DELAY", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendMemory, cfg.StoreBackend)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 30*time.Second, cfg.DLQBaseDelay)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("OUTBOX_POLL_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)
}
