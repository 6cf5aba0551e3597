package consumer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ArchiveHandler keeps a copy of every consumed event in
// participation_event_log. Redelivered offsets are stored once.
type ArchiveHandler struct {
	pool *pgxpool.Pool
}

// NewArchiveHandler constructs a handler backed by the provided pool.
func NewArchiveHandler(pool *pgxpool.Pool) *ArchiveHandler {
	return &ArchiveHandler{pool: pool}
}

// Handle stores the event payload.
func (h *ArchiveHandler) Handle(ctx context.Context, msg Message) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO participation_event_log (event_type, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
         ON CONFLICT (topic, partition, record_offset) DO NOTHING`,
		msg.EventType,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, msg Message) error {
		for _, h := range handlers {
			if err := h.Handle(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}
