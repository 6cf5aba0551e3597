//go:build integration

package consumer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vannoorsab/visionEndeavorius/internal/consumer"
	"github.com/vannoorsab/visionEndeavorius/internal/testsupport"
)

func TestArchiveHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	handler := consumer.NewArchiveHandler(pool)

	payload := json.RawMessage(`{"record_id":"abc"}`)
	msg := consumer.Message{
		EventType:     consumer.EventParticipationCompleted,
		SchemaID:      42,
		SchemaSubject: "participation_completions-value",
		Topic:         "participation_completions",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM participation_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var stored []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload FROM participation_event_log LIMIT 1`).Scan(&stored))
	require.JSONEq(t, string(payload), string(stored))
}
