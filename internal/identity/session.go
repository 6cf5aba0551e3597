package identity

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidTransition is returned when a session is asked to move to a state
// it cannot reach from its current one.
var ErrInvalidTransition = errors.New("invalid session transition")

// State is the authentication state of a session.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// ProfileState is what a session knows about its user's profile. It is one of
// Unauthenticated, Loading or Ready.
type ProfileState interface {
	profileState()
}

// Unauthenticated means the session has no user.
type Unauthenticated struct{}

// Loading means credentials were submitted and the profile is being fetched.
type Loading struct{}

// Ready carries the fetched profile.
type Ready struct {
	Profile Profile
}

func (Unauthenticated) profileState() {}
func (Loading) profileState()         {}
func (Ready) profileState()           {}

// Session is one signed-in client.
type Session struct {
	ID string

	mu        sync.RWMutex
	state     State
	uid       string
	expiresAt time.Time
	profile   Profile
}

func newSession(id string) *Session {
	return &Session{ID: id, state: StateAnonymous}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UID returns the signed-in user, or "" when anonymous.
func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

// ExpiresAt returns when the session lapses.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Profile reports the cached profile state.
func (s *Session) Profile() ProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.state {
	case StateAuthenticating:
		return Loading{}
	case StateAuthenticated:
		p := s.profile
		p.Interests = cloneStrings(p.Interests)
		p.JoinedActivities = cloneStrings(p.JoinedActivities)
		p.CompletedActivities = cloneStrings(p.CompletedActivities)
		return Ready{Profile: p}
	default:
		return Unauthenticated{}
	}
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnonymous {
		return ErrInvalidTransition
	}
	s.state = StateAuthenticating
	return nil
}

func (s *Session) authenticate(profile Profile, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticating {
		return ErrInvalidTransition
	}
	s.state = StateAuthenticated
	s.uid = profile.UID
	s.profile = profile
	s.expiresAt = expiresAt
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.uid = ""
	s.profile = Profile{}
	s.expiresAt = time.Time{}
}

func (s *Session) merge(update ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return
	}
	s.profile = update.Apply(s.profile)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
