package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in Berlin, the publication only carries day and month
// so a server in another zone would shift dates around midnight.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date returns midnight of the given calendar day in Location.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

// StartOfDay truncates t to midnight of its calendar day in Location.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return Date(t.Year(), t.Month(), t.Day())
}

// Clock is the interface anything depending on the system clock should use.
//
// note: fault injection point
type Clock interface {
	Now() time.Time
}

type StandardClock struct{}

func (StandardClock) Now() time.Time {
	return Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
