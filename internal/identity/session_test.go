package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	s := newSession("s1")
	require.Equal(t, StateAnonymous, s.State())
	require.IsType(t, Unauthenticated{}, s.Profile())

	require.ErrorIs(t, s.authenticate(Profile{UID: "u1"}, time.Now()), ErrInvalidTransition)

	require.NoError(t, s.begin())
	require.Equal(t, StateAuthenticating, s.State())
	require.IsType(t, Loading{}, s.Profile())
	require.ErrorIs(t, s.begin(), ErrInvalidTransition)

	require.NoError(t, s.authenticate(Profile{UID: "u1", DisplayName: "alice"}, time.Now()))
	require.Equal(t, StateAuthenticated, s.State())
	require.Equal(t, "u1", s.UID())

	ready, ok := s.Profile().(Ready)
	require.True(t, ok)
	require.Equal(t, "alice", ready.Profile.DisplayName)

	s.reset()
	require.Equal(t, StateAnonymous, s.State())
	require.Empty(t, s.UID())
	require.IsType(t, Unauthenticated{}, s.Profile())
}

func TestMergeIgnoredUnlessAuthenticated(t *testing.T) {
	s := newSession("s1")
	name := "bob"
	s.merge(ProfileUpdate{DisplayName: &name})
	require.IsType(t, Unauthenticated{}, s.Profile())
}

func TestNormalizeInterests(t *testing.T) {
	got, err := NormalizeInterests([]string{" Health", "community", "health", ""})
	require.NoError(t, err)
	require.Equal(t, []string{"community", "health"}, got)

	_, err = NormalizeInterests([]string{"gardening"})
	require.Error(t, err)
}

func TestDefaultDisplayName(t *testing.T) {
	require.Equal(t, "alice", defaultDisplayName("alice@example.com"))
	require.Equal(t, "noatsign", defaultDisplayName("noatsign"))
}
