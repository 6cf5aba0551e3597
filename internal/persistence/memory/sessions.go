package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vannoorsab/visionEndeavorius/internal/identity"
)

// SessionStore implements identity.SessionStore with lazy expiry.
type SessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	record  identity.SessionRecord
	expires time.Time
}

// NewSessionStore constructs an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{now: time.Now, sessions: make(map[string]sessionEntry)}
}

// Save implements identity.SessionStore.
func (s *SessionStore) Save(_ context.Context, record identity.SessionRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = sessionEntry{record: record, expires: s.now().Add(ttl)}
	return nil
}

// Load implements identity.SessionStore.
func (s *SessionStore) Load(_ context.Context, sessionID string) (*identity.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.sessions, sessionID)
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

// Delete implements identity.SessionStore.
func (s *SessionStore) Delete(_ context.Context, sessionIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sessionIDs {
		delete(s.sessions, id)
	}
	return nil
}

// ListByUser implements identity.SessionStore.
func (s *SessionStore) ListByUser(_ context.Context, uid string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ids []string
	for id, entry := range s.sessions {
		if !now.Before(entry.expires) {
			delete(s.sessions, id)
			continue
		}
		if entry.record.UID == uid {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
