// Package memory keeps every collection in process memory for local
// development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
)

// Store implements ledger.Repository, identity.ProfileStore and
// identity.CredentialStore.
type Store struct {
	mu          sync.RWMutex
	records     []ledger.Record
	profiles    map[string]identity.Profile
	credentials map[string]identity.Credential
	emails      map[string]string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		profiles:    make(map[string]identity.Profile),
		credentials: make(map[string]identity.Credential),
		emails:      make(map[string]string),
	}
}

// Create implements ledger.Repository.
func (s *Store) Create(_ context.Context, record ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	s.records = append(s.records, cloneRecord(record))
	return nil
}

// Get implements ledger.Repository.
func (s *Store) Get(_ context.Context, recordID string) (*ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == recordID {
			out := cloneRecord(r)
			return &out, nil
		}
	}
	return nil, nil
}

// Query implements ledger.Repository. Records come back in insertion order.
func (s *Store) Query(_ context.Context, filter ledger.Filter) ([]ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Record, 0)
	for _, r := range s.records {
		if filter.Matches(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

// MarkCompleted implements ledger.Repository.
func (s *Store) MarkCompleted(_ context.Context, recordID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != recordID {
			continue
		}
		if s.records[i].Completed() {
			return nil
		}
		completedAt := at
		s.records[i].Status = ledger.StatusCompleted
		s.records[i].CompletedAt = &completedAt
		return nil
	}
	return ledger.ErrRecordNotFound
}

// CreateProfile implements identity.ProfileStore.
func (s *Store) CreateProfile(_ context.Context, profile identity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UID] = cloneProfile(profile)
	return nil
}

// GetProfile implements identity.ProfileStore.
func (s *Store) GetProfile(_ context.Context, uid string) (*identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[uid]
	if !ok {
		return nil, nil
	}
	out := cloneProfile(p)
	return &out, nil
}

// UpdateProfile implements identity.ProfileStore.
func (s *Store) UpdateProfile(_ context.Context, uid string, update identity.ProfileUpdate) (*identity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[uid]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	p = update.Apply(p)
	s.profiles[uid] = p
	out := cloneProfile(p)
	return &out, nil
}

// CreateCredential implements identity.CredentialStore.
func (s *Store) CreateCredential(_ context.Context, cred identity.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[cred.Email]; taken {
		return identity.ErrEmailTaken
	}
	s.emails[cred.Email] = cred.UID
	s.credentials[cred.UID] = cred
	return nil
}

// CredentialByEmail implements identity.CredentialStore.
func (s *Store) CredentialByEmail(_ context.Context, email string) (*identity.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.emails[email]
	if !ok {
		return nil, nil
	}
	cred := s.credentials[uid]
	return &cred, nil
}

// CredentialByUID implements identity.CredentialStore.
func (s *Store) CredentialByUID(_ context.Context, uid string) (*identity.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[uid]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

// UpdatePasswordHash implements identity.CredentialStore.
func (s *Store) UpdatePasswordHash(_ context.Context, uid string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[uid]
	if !ok {
		return identity.ErrProfileNotFound
	}
	cred.PasswordHash = append([]byte(nil), hash...)
	s.credentials[uid] = cred
	return nil
}

// UpdateDisplayName implements identity.CredentialStore.
func (s *Store) UpdateDisplayName(_ context.Context, uid, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[uid]
	if !ok {
		return identity.ErrProfileNotFound
	}
	cred.DisplayName = displayName
	s.credentials[uid] = cred
	return nil
}

// DeleteCredential implements identity.CredentialStore.
func (s *Store) DeleteCredential(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.credentials[uid]; ok {
		delete(s.emails, cred.Email)
		delete(s.credentials, uid)
	}
	return nil
}

func cloneRecord(r ledger.Record) ledger.Record {
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		r.CompletedAt = &at
	}
	return r
}

func cloneProfile(p identity.Profile) identity.Profile {
	p.Interests = cloneStrings(p.Interests)
	p.JoinedActivities = cloneStrings(p.JoinedActivities)
	p.CompletedActivities = cloneStrings(p.CompletedActivities)
	return p
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
