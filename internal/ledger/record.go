package ledger

import "time"

// Status is the participation state of a record.
type Status string

const (
	StatusJoined    Status = "joined"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusJoined || s == StatusCompleted
}

// Record links a user to a catalog activity. The activity title and icon are
// copied at join time.
type Record struct {
	ID            string
	UserID        string
	ActivityID    string
	ActivityTitle string
	Icon          string
	JoinedAt      time.Time
	Status        Status
	CompletedAt   *time.Time
}

// Completed reports whether the record has reached StatusCompleted.
func (r Record) Completed() bool {
	return r.Status == StatusCompleted
}

// CertificateDate is the date printed on the record's certificate: the
// completion instant when the completion feed supplied one, else the join
// instant.
func (r Record) CertificateDate() time.Time {
	if r.CompletedAt != nil && !r.CompletedAt.IsZero() {
		return *r.CompletedAt
	}
	return r.JoinedAt
}

// Filter holds equality filters over the user_activities collection. An empty
// Status matches every status.
type Filter struct {
	UserID string
	Status Status
}

// Matches reports whether r satisfies f.
func (f Filter) Matches(r Record) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Summary aggregates a user's participation for the dashboard.
type Summary struct {
	Joined           int
	Completed        int
	HoursVolunteered int
	Activities       []Record
}
