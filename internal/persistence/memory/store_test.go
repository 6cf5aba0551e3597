package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
)

func TestQueryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Create(ctx, ledger.Record{ID: id, UserID: "u1", Status: ledger.StatusJoined}))
	}
	require.NoError(t, store.Create(ctx, ledger.Record{ID: "d", UserID: "u2", Status: ledger.StatusJoined}))

	records, err := store.Query(ctx, ledger.Filter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "c", records[0].ID)
	require.Equal(t, "a", records[1].ID)
	require.Equal(t, "b", records[2].ID)
}

func TestGetReturnsNilWhenMissing(t *testing.T) {
	record, err := NewStore().Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestMarkCompletedMissing(t *testing.T) {
	err := NewStore().MarkCompleted(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestProfileCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.CreateProfile(ctx, identity.Profile{UID: "u1", Interests: []string{"health"}}))

	p, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	p.Interests[0] = "mutated"

	again, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"health"}, again.Interests)

	_, err = store.UpdateProfile(ctx, "missing", identity.ProfileUpdate{})
	require.ErrorIs(t, err, identity.ErrProfileNotFound)
}

func TestCreateCredentialRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.CreateCredential(ctx, identity.Credential{UID: "u1", Email: "a@example.com"}))

	err := store.CreateCredential(ctx, identity.Credential{UID: "u2", Email: "a@example.com"})
	require.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewSessionStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, identity.SessionRecord{ID: "s1", UID: "u1"}, time.Minute))
	require.NoError(t, store.Save(ctx, identity.SessionRecord{ID: "s2", UID: "u1"}, time.Hour))

	ids, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"s1", "s2"}, ids)

	now = now.Add(2 * time.Minute)
	rec, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Nil(t, rec)

	rec, err = store.Load(ctx, "s2")
	require.NoError(t, err)
	require.Equal(t, "u1", rec.UID)

	require.NoError(t, store.Delete(ctx, "s2"))
	ids, err = store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, ids)
}
