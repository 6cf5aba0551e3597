package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vannoorsab/visionEndeavorius/internal/logging"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := []byte(`{"record_id":"abc"}`)
	msg := kafka.Message{
		Topic:     "participation_completions",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Key:       []byte("u-1"),
		Value:     framed(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventParticipationCompleted)},
			{Key: "schema_subject", Value: []byte("participation_completions-value")},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(testLogger(t))).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, EventParticipationCompleted, handler.last.EventType)
	require.Equal(t, "participation_completions-value", handler.last.SchemaSubject)
	require.Equal(t, "u-1", handler.last.Key)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorAcceptsUnframedJSON(t *testing.T) {
	msg := kafka.Message{
		Topic:   "participation_completions",
		Value:   []byte(`{"record_id":"abc"}`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventParticipationCompleted)}},
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	require.ErrorIs(t, NewProcessor(reader, handler).Run(context.Background()), context.Canceled)
	require.Equal(t, 1, handler.calls)
	require.Zero(t, handler.last.SchemaID)
	require.JSONEq(t, `{"record_id":"abc"}`, string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	msg := kafka.Message{
		Topic:   "participation_completions",
		Offset:  20,
		Value:   framed(99, []byte(`{"record_id":"def"}`)),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventParticipationCompleted)}},
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{err: errors.New("boom")}

	before := testutil.ToFloat64(handlerErrorCounter.WithLabelValues("participation_completions", EventParticipationCompleted))
	err := NewProcessor(reader, handler, WithLogger(testLogger(t))).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
	require.InDelta(t, before+1, testutil.ToFloat64(handlerErrorCounter.WithLabelValues("participation_completions", EventParticipationCompleted)), 0.0001)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	malformed := []kafka.Message{
		{Topic: "participation_completions", Value: framed(1, []byte(`{}`))},
		{Topic: "participation_completions", Value: []byte{0, 1}, Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}}},
		{Topic: "participation_completions", Value: []byte("not json"), Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}}},
	}
	reader := &stubReader{messages: malformed}
	handler := &stubHandler{}

	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("participation_completions"))
	require.ErrorIs(t, NewProcessor(reader, handler).Run(context.Background()), context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.InDelta(t, before+3, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("participation_completions")), 0.0001)
}

func TestChainStopsAtFirstError(t *testing.T) {
	first := &stubHandler{err: errors.New("first failed")}
	second := &stubHandler{}

	err := Chain(first, second).Handle(context.Background(), Message{})
	require.EqualError(t, err, "first failed")
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)
}

func framed(schemaID int, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], payload)
	return value
}

func testLogger(t *testing.T) *logging.Logger {
	return logging.FromZap(zaptest.NewLogger(t))
}

// stubReader returns its messages in order, then context.Canceled.
type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
