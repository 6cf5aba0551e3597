// Package events defines event payloads shared by the API and its workers.
package events

import "time"

// ParticipationJoined is emitted when a user joins a catalog activity.
type ParticipationJoined struct {
	RecordID      string    `json:"record_id"`
	UserID        string    `json:"user_id"`
	ActivityID    string    `json:"activity_id"`
	ActivityTitle string    `json:"activity_title"`
	JoinedAt      time.Time `json:"joined_at"`
	Status        string    `json:"status"`
	Version       string    `json:"version"`
}

// ParticipationCompleted is published by the organiser system once a
// volunteer has finished an activity. The service never emits it.
type ParticipationCompleted struct {
	RecordID    string    `json:"record_id"`
	UserID      string    `json:"user_id,omitempty"`
	ActivityID  string    `json:"activity_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	Source      string    `json:"source,omitempty"`
}
