package api

import (
	"time"

	"github.com/vannoorsab/visionEndeavorius/internal/catalog"
	"github.com/vannoorsab/visionEndeavorius/internal/certificate"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
)

const (
	maxJSONBody   = 1 << 20
	maxAvatarBody = 5<<20 + 1
)

// SignUpRequest is the payload for POST /v1/auth/signup.
type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignInRequest is the payload for POST /v1/auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the payload for POST /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// UpdateProfileRequest is the payload for PATCH /v1/profile. Absent fields
// are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name" validate:"omitempty,max=80"`
	DateOfBirth *string   `json:"date_of_birth"`
	Interests   *[]string `json:"interests" validate:"omitempty,max=4"`
}

func (r UpdateProfileRequest) toUpdate() identity.ProfileUpdate {
	return identity.ProfileUpdate{
		DisplayName: r.DisplayName,
		DateOfBirth: r.DateOfBirth,
		Interests:   r.Interests,
	}
}

// ProfileView is the JSON form of a profile.
type ProfileView struct {
	UID                 string   `json:"uid"`
	Email               string   `json:"email"`
	DisplayName         string   `json:"display_name"`
	PhotoURL            string   `json:"photo_url,omitempty"`
	DateOfBirth         string   `json:"date_of_birth,omitempty"`
	Interests           []string `json:"interests"`
	JoinedActivities    []string `json:"joined_activities"`
	CompletedActivities []string `json:"completed_activities"`
}

func toProfileView(p identity.Profile) ProfileView {
	return ProfileView{
		UID:                 p.UID,
		Email:               p.Email,
		DisplayName:         p.DisplayName,
		PhotoURL:            p.PhotoURL,
		DateOfBirth:         p.DateOfBirth,
		Interests:           nonNil(p.Interests),
		JoinedActivities:    nonNil(p.JoinedActivities),
		CompletedActivities: nonNil(p.CompletedActivities),
	}
}

// SignInResponse carries the bearer token of a new session.
type SignInResponse struct {
	Token     string      `json:"token"`
	SessionID string      `json:"session_id"`
	ExpiresAt time.Time   `json:"expires_at"`
	Profile   ProfileView `json:"profile"`
}

// ActivitiesResponse lists the catalog.
type ActivitiesResponse struct {
	Items []catalog.Activity `json:"items"`
}

// ParticipationView is the JSON form of a participation record.
type ParticipationView struct {
	RecordID      string     `json:"record_id"`
	UserID        string     `json:"user_id"`
	ActivityID    string     `json:"activity_id"`
	ActivityTitle string     `json:"activity_title"`
	Icon          string     `json:"icon"`
	JoinedAt      time.Time  `json:"joined_at"`
	Status        string     `json:"status"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func toParticipationView(r ledger.Record) ParticipationView {
	return ParticipationView{
		RecordID:      r.ID,
		UserID:        r.UserID,
		ActivityID:    r.ActivityID,
		ActivityTitle: r.ActivityTitle,
		Icon:          r.Icon,
		JoinedAt:      r.JoinedAt,
		Status:        string(r.Status),
		CompletedAt:   r.CompletedAt,
	}
}

// ParticipationsResponse lists a user's records in store order.
type ParticipationsResponse struct {
	Items []ParticipationView `json:"items"`
}

// DashboardResponse summarises a user's participation.
type DashboardResponse struct {
	Joined                int                 `json:"joined"`
	Completed             int                 `json:"completed"`
	CertificatesAvailable int                 `json:"certificates_available"`
	HoursVolunteered      int                 `json:"hours_volunteered"`
	Activities            []ParticipationView `json:"activities"`
}

// CertificateView describes one downloadable certificate.
type CertificateView struct {
	RecordID      string    `json:"record_id"`
	ActivityID    string    `json:"activity_id"`
	ActivityTitle string    `json:"activity_title"`
	Icon          string    `json:"icon"`
	Date          string    `json:"date"`
	CompletedAt   time.Time `json:"completed_at"`
	Filename      string    `json:"filename"`
}

// CertificatesResponse lists the caller's certificates.
type CertificatesResponse struct {
	Items []CertificateView `json:"items"`
}

// certificateDateLayout prints dates as M/D/YYYY.
const certificateDateLayout = "1/2/2006"

func certificateRequest(recipient string, r ledger.Record) certificate.Request {
	return certificate.Request{
		RecipientName: recipient,
		ActivityTitle: r.ActivityTitle,
		CompletedDate: r.CertificateDate().UTC().Format(certificateDateLayout),
	}
}

func toParticipationViews(records []ledger.Record) []ParticipationView {
	views := make([]ParticipationView, 0, len(records))
	for _, r := range records {
		views = append(views, toParticipationView(r))
	}
	return views
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
