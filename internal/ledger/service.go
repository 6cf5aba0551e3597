// Package ledger records which users joined which activities and which of
// those participations are completed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/catalog"
	"github.com/vannoorsab/visionEndeavorius/internal/observability"
)

var (
	// ErrRecordNotFound is returned when a participation record cannot be located.
	ErrRecordNotFound = errors.New("participation record not found")
)

// HoursPerActivity is credited to the dashboard for each completed record.
const HoursPerActivity = 4

// Repository captures persistence operations over the user_activities collection.
type Repository interface {
	Create(ctx context.Context, record Record) error
	Get(ctx context.Context, recordID string) (*Record, error)
	Query(ctx context.Context, filter Filter) ([]Record, error)
	// MarkCompleted moves a joined record to completed. Records that are
	// already completed are left untouched. ErrRecordNotFound when missing.
	MarkCompleted(ctx context.Context, recordID string, at time.Time) error
}

// Service orchestrates participation workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for join timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join records that userID joined activity. No check is made for an earlier
// record of the same pair, so repeated or concurrent joins each produce a
// record.
func (s *Service) Join(ctx context.Context, userID string, activity catalog.Activity) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.New(apperr.KindValidation, "user id is required")
	}
	if strings.TrimSpace(activity.ID) == "" {
		return nil, apperr.New(apperr.KindValidation, "activity id is required")
	}

	record := Record{
		ID:            uuid.NewString(),
		UserID:        userID,
		ActivityID:    activity.ID,
		ActivityTitle: activity.Title,
		Icon:          activity.Icon,
		JoinedAt:      s.now().UTC(),
		Status:        StatusJoined,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperr.Wrap(apperr.KindWrite, "failed to join activity, please try again", err)
	}
	observability.RecordParticipationJoined(record.ActivityID, record.JoinedAt)
	return &record, nil
}

// ListForUser returns every record of userID in store order.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Record, error) {
	records, err := s.repo.Query(ctx, Filter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return records, nil
}

// ListCompletedForUser returns userID's records whose status is completed.
func (s *Service) ListCompletedForUser(ctx context.Context, userID string) ([]Record, error) {
	records, err := s.repo.Query(ctx, Filter{UserID: userID, Status: StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("list completed participations: %w", err)
	}
	return records, nil
}

// Get fetches a record by id.
func (s *Service) Get(ctx context.Context, recordID string) (*Record, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "participation not found", ErrRecordNotFound)
	}
	return record, nil
}

// Complete applies a completion reported by the external completion feed.
// Nothing inside the service calls it on its own.
func (s *Service) Complete(ctx context.Context, recordID string, at time.Time) error {
	if strings.TrimSpace(recordID) == "" {
		return apperr.New(apperr.KindValidation, "record id is required")
	}
	if at.IsZero() {
		at = s.now()
	}
	if err := s.repo.MarkCompleted(ctx, recordID, at.UTC()); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return apperr.Wrap(apperr.KindNotFound, "participation not found", err)
		}
		return apperr.Wrap(apperr.KindWrite, "failed to complete participation", err)
	}
	return nil
}

// Summarize builds the dashboard view for userID. Activities lists every
// record in store order.
func (s *Service) Summarize(ctx context.Context, userID string) (Summary, error) {
	records, err := s.ListForUser(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Joined: len(records), Activities: records}
	for _, r := range records {
		if r.Completed() {
			summary.Completed++
		}
	}
	summary.HoursVolunteered = summary.Completed * HoursPerActivity
	return summary, nil
}
