package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vannoorsab/visionEndeavorius/internal/logging"
)

const maxBackoff = time.Hour

// DLQManager replays dead-lettered events into the outbox and quarantines
// entries that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	logger     *logging.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager. Non-positive limits fall back to five
// retries and a one minute base delay.
func NewDLQManager(pool *pgxpool.Pool, logger *logging.Logger, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &DLQManager{pool: pool, logger: logger.With("component", "dlq_manager"), maxRetries: maxRetries, baseDelay: baseDelay}
}

// RunOnce handles up to batchSize due entries and returns how many were
// requeued.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	entries, err := m.due(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	requeued := 0
	var errs error
	for _, entry := range entries {
		ok, err := m.handleEntry(ctx, entry)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("dlq entry %d: %w", entry.ID, err))
			continue
		}
		if ok {
			requeued++
		}
	}
	updateBacklogGauge(ctx, m.pool)
	return requeued, errs
}

// Run calls RunOnce every interval until ctx is done.
func (m *DLQManager) Run(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		requeued, err := m.RunOnce(ctx, batchSize)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("dlq pass failed", "error", err)
		}
		if requeued > 0 {
			m.logger.Info("dlq entries requeued", "count", requeued)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *DLQManager) due(ctx context.Context, batchSize int) ([]dlqEntry, error) {
	const query = `SELECT dlq_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count
        FROM outbox_dlq
        WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1`

	rows, err := m.pool.Query(ctx, query, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []dlqEntry
	for rows.Next() {
		var e dlqEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Topic, &e.Payload, &e.Reason, &e.AggregateType, &e.AggregateID, &e.SchemaSubject, &e.PartitionKey, &e.RetryCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// handleEntry quarantines, requeues or reschedules one entry. It reports
// whether the entry went back to the outbox.
func (m *DLQManager) handleEntry(ctx context.Context, entry dlqEntry) (bool, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if entry.RetryCount >= m.maxRetries {
		if _, err := tx.Exec(ctx, `UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`, "retry limit reached", entry.ID); err != nil {
			return false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return false, err
		}
		recordDLQQuarantined(entry)
		m.logger.Warn("dlq entry quarantined", "dlq_id", entry.ID, "event_type", entry.EventType, "retries", entry.RetryCount)
		return false, nil
	}

	if insertErr := requeueOutbox(ctx, tx, entry); insertErr != nil {
		// The failed insert aborted the transaction; schedule the retry on a
		// fresh one.
		tx.Rollback(ctx)
		delay := m.backoffDelay(entry.RetryCount + 1)
		if _, err := m.pool.Exec(ctx,
			`UPDATE outbox_dlq
                SET retry_count = retry_count + 1,
                    last_attempt_at = NOW(),
                    next_retry_at = NOW() + $1::interval,
                    reason = $2
              WHERE dlq_id = $3`,
			delay, insertErr.Error(), entry.ID,
		); err != nil {
			return false, err
		}
		recordDLQRetry(entry)
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	recordDLQRequeued(entry)
	return true, nil
}

// backoffDelay doubles baseDelay per attempt, capped at maxBackoff.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 20 {
		return maxBackoff
	}
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

// requeueOutbox reinserts the payload into the primary outbox table for replay.
func requeueOutbox(ctx context.Context, tx pgx.Tx, entry dlqEntry) error {
	if entry.SchemaSubject == "" {
		return fmt.Errorf("missing schema_subject for dlq entry %d", entry.ID)
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Topic,
		entry.SchemaSubject,
		entry.PartitionKey,
		entry.Payload,
	)
	return err
}

// dlqEntry represents an outbox_dlq row selected for processing.
type dlqEntry struct {
	ID            int64
	EventID       int64
	EventType     string
	Topic         string
	Payload       []byte
	Reason        string
	AggregateType string
	AggregateID   string
	SchemaSubject string
	PartitionKey  string
	RetryCount    int
}
