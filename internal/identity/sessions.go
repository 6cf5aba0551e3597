package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
)

// SessionRecord is the persisted part of a session.
type SessionRecord struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists live sessions. Records vanish once their TTL passes.
type SessionStore interface {
	Save(ctx context.Context, record SessionRecord, ttl time.Duration) error
	// Load returns nil, nil when the session is unknown or expired.
	Load(ctx context.Context, sessionID string) (*SessionRecord, error)
	Delete(ctx context.Context, sessionIDs ...string) error
	ListByUser(ctx context.Context, uid string) ([]string, error)
}

// Sessions tracks every session of the process. It is the only subscriber to
// the provider's auth events.
type Sessions struct {
	store    SessionStore
	profiles ProfileStore
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time

	mu   sync.Mutex
	live map[string]*Session

	unsubscribe func()
}

// NewSessions subscribes to provider and returns the manager. Call Close to
// detach it.
func NewSessions(provider Provider, store SessionStore, profiles ProfileStore, ttl time.Duration, logger *logging.Logger) *Sessions {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Sessions{
		store:    store,
		profiles: profiles,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		live:     make(map[string]*Session),
	}
	m.unsubscribe = provider.Subscribe(m.handle)
	return m
}

// Close stops listening to the provider.
func (m *Sessions) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// TTL is the lifetime given to new sessions.
func (m *Sessions) TTL() time.Duration {
	return m.ttl
}

// begin creates a session that is already waiting for credentials.
func (m *Sessions) begin() *Session {
	s := newSession(uuid.NewString())
	_ = s.begin()
	return s
}

// establish fetches the profile of uid, persists the session and marks it
// authenticated.
func (m *Sessions) establish(ctx context.Context, s *Session, uid string) error {
	profile, err := m.profiles.GetProfile(ctx, uid)
	if err != nil {
		s.reset()
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		s.reset()
		return apperr.Wrap(apperr.KindNotFound, "profile not found", ErrProfileNotFound)
	}

	expiresAt := m.now().Add(m.ttl).UTC()
	if err := m.store.Save(ctx, SessionRecord{ID: s.ID, UID: uid, ExpiresAt: expiresAt}, m.ttl); err != nil {
		s.reset()
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.authenticate(*profile, expiresAt); err != nil {
		return err
	}

	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()
	return nil
}

// Resume returns the authenticated session sessionID. The session store is
// authoritative: a session missing there is dropped from memory too.
func (m *Sessions) Resume(ctx context.Context, sessionID string) (*Session, error) {
	record, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if record == nil {
		m.forget(sessionID)
		return nil, apperr.New(apperr.KindAuthentication, "session has ended")
	}

	m.mu.Lock()
	s, ok := m.live[sessionID]
	m.mu.Unlock()
	if ok && s.State() == StateAuthenticated {
		return s, nil
	}

	// Known to the store but not to this process, e.g. after a restart.
	profile, err := m.profiles.GetProfile(ctx, record.UID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.New(apperr.KindAuthentication, "session has ended")
	}
	s = newSession(record.ID)
	_ = s.begin()
	if err := s.authenticate(*profile, record.ExpiresAt); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.live[sessionID]; ok && existing.State() == StateAuthenticated {
		s = existing
	} else {
		m.live[sessionID] = s
	}
	m.mu.Unlock()
	return s, nil
}

// mergeProfile applies update to every cached session of uid.
func (m *Sessions) mergeProfile(uid string, update ProfileUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.live {
		if s.UID() == uid {
			s.merge(update)
		}
	}
}

func (m *Sessions) forget(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if s, ok := m.live[id]; ok {
			s.reset()
			delete(m.live, id)
		}
	}
}

// handle reacts to provider auth events. Events carrying an identity need no
// action since sessions are only created through establish.
func (m *Sessions) handle(evt AuthEvent) {
	if evt.Identity != nil {
		return
	}

	ctx := context.Background()
	ids := []string{evt.SessionID}
	if evt.SessionID == "" {
		var err error
		ids, err = m.store.ListByUser(ctx, evt.UID)
		if err != nil {
			m.logger.Error("list sessions for sign-out failed", "uid", evt.UID, "error", err)
		}
		m.mu.Lock()
		for id, s := range m.live {
			if s.UID() == evt.UID {
				ids = append(ids, id)
			}
		}
		m.mu.Unlock()
	}

	m.forget(ids...)
	if len(ids) == 0 {
		return
	}
	if err := m.store.Delete(ctx, ids...); err != nil {
		m.logger.Error("delete sessions failed", "uid", evt.UID, "error", err)
		return
	}
	m.logger.Debug("sessions ended", "uid", evt.UID, "count", len(ids))
}
