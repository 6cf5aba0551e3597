// Package postgres persists identities, profiles, participation records and
// outbox events in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
	platformevents "github.com/vannoorsab/visionEndeavorius/libs/go/events"
)

const eventVersion = "v1"

// Store provides Postgres-backed persistence for every collection.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const recordColumns = `record_id::text, user_id, activity_id, activity_title, icon, joined_at, status, completed_at`

// Create inserts a participation record and its outbox event in one
// transaction.
func (s *Store) Create(ctx context.Context, record ledger.Record) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO user_activities (record_id, user_id, activity_id, activity_title, icon, joined_at, status)
         VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		record.ID,
		record.UserID,
		record.ActivityID,
		record.ActivityTitle,
		record.Icon,
		record.JoinedAt,
		string(record.Status),
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, record, "participation.joined", platformevents.ParticipationJoined{
		RecordID:      record.ID,
		UserID:        record.UserID,
		ActivityID:    record.ActivityID,
		ActivityTitle: record.ActivityTitle,
		JoinedAt:      record.JoinedAt,
		Status:        string(record.Status),
		Version:       eventVersion,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, record ledger.Record, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"participation",
		record.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(record),
		body,
		fmt.Sprintf("%s:%s", record.ID, eventType),
	)
	return err
}

// Get retrieves a record by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, recordID string) (*ledger.Record, error) {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM user_activities WHERE record_id = $1`, id.String())
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Query returns the records matching filter in insertion order.
func (s *Store) Query(ctx context.Context, filter ledger.Filter) ([]ledger.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM user_activities WHERE TRUE`
	args := make([]interface{}, 0, 2)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]ledger.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkCompleted moves a joined record to completed.
func (s *Store) MarkCompleted(ctx context.Context, recordID string, at time.Time) error {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return ledger.ErrRecordNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_activities SET status = 'completed', completed_at = $2
         WHERE record_id = $1 AND status = 'joined'`,
		id.String(), at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_activities WHERE record_id = $1)`, id.String()).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ledger.ErrRecordNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (ledger.Record, error) {
	var (
		record ledger.Record
		status string
	)
	if err := row.Scan(&record.ID, &record.UserID, &record.ActivityID, &record.ActivityTitle, &record.Icon, &record.JoinedAt, &status, &record.CompletedAt); err != nil {
		return ledger.Record{}, err
	}
	record.Status = ledger.Status(status)
	record.JoinedAt = record.JoinedAt.UTC()
	if record.CompletedAt != nil {
		at := record.CompletedAt.UTC()
		record.CompletedAt = &at
	}
	return record, nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(ledger.Record) string
}

var eventCatalog = map[string]EventMetadata{
	"participation.joined": {
		Topic:         "participation_events",
		SchemaSubject: "participation_events-value",
		PartitionKeyFn: func(r ledger.Record) string {
			return r.UserID
		},
	},
}
