package topics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		label    string
		expected []string
	}{
		{label: "10c", expected: []string{"class.10c"}},
		{label: "5a", expected: []string{"class.5a"}},
		{label: "Q1", expected: []string{"class.Q1"}},
		{label: "5ab", expected: []string{"class.5a", "class.5b"}},
		{label: "5ab6ab", expected: []string{"class.5a", "class.5b", "class.6a", "class.6b"}},
		{label: "E2Q2Q4", expected: []string{"class.E2", "class.Q2", "class.Q4"}},
		{label: "10abc", expected: []string{"class.10a", "class.10b", "class.10c"}},
		{label: "5a5a", expected: []string{"class.5a"}},
		{label: "5a, 6b", expected: []string{"class.5a", "class.6b"}},
		{label: "Q1 Q2", expected: []string{"class.Q1", "class.Q2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			topics, err := Expand(tc.label)
			require.NoError(t, err)
			require.Equal(t, tc.expected, topics)
		})
	}
}

func TestExpandMalformed(t *testing.T) {
	for _, label := range []string{"", "  ", "ABCD", "----"} {
		_, err := Expand(label)
		var malformed *MalformedLabelError
		require.True(t, errors.As(err, &malformed), label)
	}
}

func TestExpanderNamespace(t *testing.T) {
	e := Expander{Namespace: "vplan"}

	topics, err := e.ForRecord("5ab", "GAR")
	require.NoError(t, err)
	require.Equal(t, []string{"vplan.class.5a", "vplan.class.5b", "vplan.teacher.GAR"}, topics)

	topics, err = e.ForRecord("ABCD", "GAR")
	require.Error(t, err)
	require.Equal(t, []string{"vplan.teacher.GAR"}, topics)
}
