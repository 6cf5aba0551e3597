package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Wrap(KindWrite, "failed to join activity", errors.New("connection refused"))
	wrapped := fmt.Errorf("join: %w", base)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, KindWrite, kind)
	require.True(t, Is(wrapped, KindWrite))
	require.False(t, Is(wrapped, KindIdentity))
	require.Equal(t, "failed to join activity", Message(wrapped))
	require.EqualError(t, base, "failed to join activity: connection refused")
}

func TestMessageFallsBackToErrorText(t *testing.T) {
	require.Equal(t, "boom", Message(errors.New("boom")))
	require.Equal(t, "", Message(nil))

	_, ok := KindOf(errors.New("plain"))
	require.False(t, ok)
}
