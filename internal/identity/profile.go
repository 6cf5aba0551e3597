package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
)

// ErrProfileNotFound is returned when no profile exists for a user id.
var ErrProfileNotFound = errors.New("profile not found")

// Interest ids a profile may carry.
var Interests = []string{"environment", "health", "education", "community"}

const dateOfBirthLayout = "2006-01-02"

// Profile is the document stored in the users collection, keyed by UID.
type Profile struct {
	UID                 string
	Email               string
	DisplayName         string
	PhotoURL            string
	DateOfBirth         string
	Interests           []string
	JoinedActivities    []string
	CompletedActivities []string
}

// ProfileUpdate lists the fields a user may change. A nil field is left
// untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
	DateOfBirth *string
	Interests   *[]string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.PhotoURL == nil && u.DateOfBirth == nil && u.Interests == nil
}

// Apply merges u into p and returns the result.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = *u.DateOfBirth
	}
	if u.Interests != nil {
		p.Interests = append([]string(nil), (*u.Interests)...)
	}
	return p
}

// normalize trims fields, dedupes interests and rejects malformed values.
func (u ProfileUpdate) normalize() (ProfileUpdate, error) {
	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if name == "" {
			return u, apperr.New(apperr.KindValidation, "display name is required")
		}
		u.DisplayName = &name
	}
	if u.DateOfBirth != nil {
		dob := strings.TrimSpace(*u.DateOfBirth)
		if dob != "" {
			if _, err := time.Parse(dateOfBirthLayout, dob); err != nil {
				return u, apperr.New(apperr.KindValidation, "date of birth must be formatted YYYY-MM-DD")
			}
		}
		u.DateOfBirth = &dob
	}
	if u.Interests != nil {
		interests, err := NormalizeInterests(*u.Interests)
		if err != nil {
			return u, err
		}
		u.Interests = &interests
	}
	return u, nil
}

// NormalizeInterests dedupes and sorts interest ids, rejecting unknown ones.
func NormalizeInterests(in []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(Interests))
	for _, id := range Interests {
		allowed[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if _, ok := allowed[id]; !ok {
			return nil, apperr.New(apperr.KindValidation, "unknown interest "+id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ProfileStore persists profiles in the users collection.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile Profile) error
	// GetProfile returns nil, nil when the profile does not exist.
	GetProfile(ctx context.Context, uid string) (*Profile, error)
	// UpdateProfile merges update and returns the stored result, or
	// ErrProfileNotFound.
	UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*Profile, error)
}

// defaultDisplayName derives a display name from the local part of email.
func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
