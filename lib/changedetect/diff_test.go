package changedetect

import (
	"testing"

	"vplan-backend/lib/scrapers/untis"

	"github.com/stretchr/testify/require"
)

func persist(id string, r untis.SubstitutionRecord) Persisted {
	r.ID = id
	return Persisted{Record: r, Hash: Hash(r)}
}

func TestDiff(t *testing.T) {
	unchanged := sample()

	moved := sample()
	moved.Lesson = "4"
	movedNow := moved
	movedNow.Room = "H302"

	gone := sample()
	gone.Lesson = "6"

	added := sample()
	added.ClassName = "5ab"

	delta := Diff(
		[]untis.SubstitutionRecord{unchanged, movedNow, added},
		[]Persisted{persist("a", unchanged), persist("b", moved), persist("c", gone)},
	)

	require.Len(t, delta.Unchanged, 1)
	require.Equal(t, "a", delta.Unchanged[0].Record.ID)

	require.Len(t, delta.Changed, 1)
	require.Equal(t, "b", delta.Changed[0].Previous.Record.ID)
	require.Equal(t, "b", delta.Changed[0].Record.ID)
	require.Equal(t, "H302", delta.Changed[0].Record.Room)
	require.Equal(t, Hash(movedNow), delta.Changed[0].Hash)

	require.Len(t, delta.New, 1)
	require.Equal(t, "5ab", delta.New[0].Record.ClassName)

	require.Len(t, delta.Removed, 1)
	require.Equal(t, "c", delta.Removed[0].Record.ID)

	require.Len(t, delta.Notify(), 2)
	require.False(t, delta.Empty())
}

func TestDiffIdempotent(t *testing.T) {
	a := sample()
	b := sample()
	b.ClassName = "7a"

	delta := Diff([]untis.SubstitutionRecord{a, b}, []Persisted{persist("1", b), persist("2", a)})
	require.True(t, delta.Empty())
	require.Len(t, delta.Unchanged, 2)
}

func TestDiffDuplicateKeys(t *testing.T) {
	// the same teacher may appear twice for one class and lesson, eg. split groups
	first := sample()
	second := sample()
	second.Room = "H105"

	t.Run("order does not matter", func(t *testing.T) {
		delta := Diff(
			[]untis.SubstitutionRecord{second, first},
			[]Persisted{persist("1", first), persist("2", second)},
		)
		require.True(t, delta.Empty())
	})

	t.Run("one of two changed", func(t *testing.T) {
		third := sample()
		third.Room = "H106"
		delta := Diff(
			[]untis.SubstitutionRecord{first, third},
			[]Persisted{persist("1", first), persist("2", second)},
		)
		require.Len(t, delta.Unchanged, 1)
		require.Len(t, delta.Changed, 1)
		require.Equal(t, "2", delta.Changed[0].Record.ID)
		require.Empty(t, delta.New)
		require.Empty(t, delta.Removed)
	})

	t.Run("extra duplicate is new", func(t *testing.T) {
		delta := Diff(
			[]untis.SubstitutionRecord{first, first},
			[]Persisted{persist("1", first)},
		)
		require.Len(t, delta.Unchanged, 1)
		require.Len(t, delta.New, 1)
	})
}

func TestDiffEmptyDay(t *testing.T) {
	delta := Diff(nil, []Persisted{persist("1", sample())})
	require.Len(t, delta.Removed, 1)
	require.Empty(t, delta.Notify())
}

func TestDeltaMerge(t *testing.T) {
	var total Delta
	total.Merge(Diff([]untis.SubstitutionRecord{sample()}, nil))
	total.Merge(Diff(nil, []Persisted{persist("1", sample())}))
	require.Len(t, total.New, 1)
	require.Len(t, total.Removed, 1)
}
