// Package redis keeps signed-in sessions in Redis so they survive restarts
// and are shared by every API replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vannoorsab/visionEndeavorius/internal/identity"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and verifies the server answers.
func Connect(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// SessionStore implements identity.SessionStore. Each session is a JSON value
// under session:{id} expiring with the session, and user_sessions:{uid} indexes
// the ids of one user. The index lives as long as its longest session, which
// needs Redis 7 for EXPIRE NX/GT.
type SessionStore struct {
	client goredis.UniversalClient
}

// NewSessionStore constructs a SessionStore over client.
func NewSessionStore(client goredis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

type sessionDoc struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Save implements identity.SessionStore.
func (s *SessionStore) Save(ctx context.Context, record identity.SessionRecord, ttl time.Duration) error {
	body, err := json.Marshal(sessionDoc{ID: record.ID, UID: record.UID, ExpiresAt: record.ExpiresAt})
	if err != nil {
		return err
	}

	index := userSessionPrefix + record.UID
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, sessionPrefix+record.ID, body, ttl)
		pipe.SAdd(ctx, index, record.ID)
		pipe.ExpireNX(ctx, index, ttl)
		pipe.ExpireGT(ctx, index, ttl)
		return nil
	})
	return err
}

// Load implements identity.SessionStore.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*identity.SessionRecord, error) {
	body, err := s.client.Get(ctx, sessionPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var doc sessionDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &identity.SessionRecord{ID: doc.ID, UID: doc.UID, ExpiresAt: doc.ExpiresAt}, nil
}

// Delete implements identity.SessionStore.
func (s *SessionStore) Delete(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	owners := make(map[string][]interface{})
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		rec, err := s.Load(ctx, id)
		if err != nil {
			return err
		}
		if rec != nil {
			owners[rec.UID] = append(owners[rec.UID], id)
		}
		keys = append(keys, sessionPrefix+id)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for uid, ids := range owners {
			pipe.SRem(ctx, userSessionPrefix+uid, ids...)
		}
		return nil
	})
	return err
}

// ListByUser implements identity.SessionStore. Ids whose session key has
// expired are pruned from the index.
func (s *SessionStore) ListByUser(ctx context.Context, uid string) ([]string, error) {
	index := userSessionPrefix + uid
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.IntCmd, len(ids))
	if _, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Exists(ctx, sessionPrefix+id)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	live := make([]string, 0, len(ids))
	var stale []interface{}
	for i, id := range ids {
		if cmds[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, index, stale...).Err(); err != nil {
			return nil, err
		}
	}
	return live, nil
}
