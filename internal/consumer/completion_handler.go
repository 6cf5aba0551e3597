package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/internal/observability"
	"github.com/vannoorsab/visionEndeavorius/libs/go/events"
)

// EventParticipationCompleted is the event_type header of completion feed
// records.
const EventParticipationCompleted = "participation.completed"

// Completer marks participation records completed.
type Completer interface {
	Complete(ctx context.Context, recordID string, at time.Time) error
}

// CompletionHandler applies completion feed events to the ledger.
type CompletionHandler struct {
	ledger Completer
	logger *logging.Logger
}

// NewCompletionHandler constructs a CompletionHandler.
func NewCompletionHandler(completer Completer, logger *logging.Logger) *CompletionHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CompletionHandler{ledger: completer, logger: logger.With("component", "completion_handler")}
}

// Handle completes the referenced record. Other event types are ignored, and
// so are completions for records this service never stored.
func (h *CompletionHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != EventParticipationCompleted {
		return nil
	}

	var evt events.ParticipationCompleted
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}

	at := evt.CompletedAt
	if at.IsZero() {
		at = msg.Timestamp
	}

	if err := h.ledger.Complete(ctx, evt.RecordID, at); err != nil {
		if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindValidation) {
			h.logger.Warn("completion skipped", "record_id", evt.RecordID, "offset", msg.Offset, "error", err)
			recordSkipped(msg)
			return nil
		}
		return err
	}

	observability.RecordParticipationCompleted(at)
	h.logger.Info("participation completed", "record_id", evt.RecordID, "source", evt.Source)
	return nil
}
