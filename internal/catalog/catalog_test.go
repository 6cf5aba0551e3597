package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListKeepsDeclarationOrder(t *testing.T) {
	ids := make([]string, 0, 4)
	for _, a := range List() {
		ids = append(ids, a.ID)
	}
	require.Equal(t, []string{"tree-plantation", "health-awareness", "teaching-kids", "environment-cleanup"}, ids)
}

func TestListReturnsCopy(t *testing.T) {
	first := List()
	first[0].Title = "mutated"

	again := List()
	require.Equal(t, "Tree Plantation Drive", again[0].Title)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("tree-plantation")
	require.True(t, ok)
	require.Equal(t, "Tree Plantation Drive", a.Title)
	require.Equal(t, 25, a.Volunteers)

	_, ok = Lookup("moon-landing")
	require.False(t, ok)
}
