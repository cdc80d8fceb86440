package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTeacher(t *testing.T) {
	require.Equal(t, "GAR", NormalizeTeacher(" gar "))
	require.Equal(t, "MÜL", NormalizeTeacher("mül"))
}

func TestSuggest(t *testing.T) {
	candidates := []string{"10a", "10b", "10c", "5ab", "Q1"}
	suggestions := Suggest("10d", candidates, 0.7, 2)
	require.Len(t, suggestions, 2)
	require.Contains(t, []string{"10a", "10b", "10c"}, suggestions[0])

	require.Empty(t, Suggest("xyz", candidates, 0.9, 3))
	require.Equal(t, []string{"Q1"}, Suggest("q1", candidates, 0.99, 3))
}
