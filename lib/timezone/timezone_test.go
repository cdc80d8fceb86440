package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	utc := time.UTC

	cases := []struct {
		now    time.Time
		expect time.Time
	}{
		{
			now:    time.Date(2023, time.February, 21, 13, 45, 0, 0, Location),
			expect: Date(2023, time.February, 21),
		},
		{
			// 23:30 UTC is already the next day in Berlin
			now:    time.Date(2023, time.February, 20, 23, 30, 0, 0, utc),
			expect: Date(2023, time.February, 21),
		},
		{
			now:    time.Date(2023, time.December, 31, 23, 59, 59, 0, Location),
			expect: Date(2023, time.December, 31),
		},
	}

	for _, test := range cases {
		require.True(t, test.expect.Equal(StartOfDay(test.now)), "now: %s", test.now)
	}
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2023, time.February, 21, 8, 0, 0, 0, Location)
	var clock Clock = FixedClock(instant)
	require.True(t, instant.Equal(clock.Now()))
}
