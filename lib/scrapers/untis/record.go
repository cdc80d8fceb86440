package untis

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the calendar date format used for keys and storage.
const DateLayout = "2006-01-02"

// SubstitutionRecord is one lesson-level substitution event.
type SubstitutionRecord struct {
	// ID is synthetic and assigned by the store, it never takes part in
	// identity or hashing.
	ID string `json:"id,omitempty"`

	Date              time.Time `json:"date"`
	ClassName         string    `json:"class_name"`
	Lesson            string    `json:"lesson"`
	Subject           string    `json:"subject,omitempty"`
	SubstituteTeacher string    `json:"substitute_teacher,omitempty"`
	OriginalTeacher   string    `json:"original_teacher"`
	Type              string    `json:"type,omitempty"`
	SubstituteOf      string    `json:"substitute_of,omitempty"`
	Room              string    `json:"room,omitempty"`
	Text              string    `json:"text,omitempty"`
}

// Key is the composite identity used to match a fresh record against a
// persisted one.
type Key struct {
	Date            string
	ClassName       string
	Lesson          string
	OriginalTeacher string
}

func (r SubstitutionRecord) Key() Key {
	return Key{
		Date:            r.Date.Format(DateLayout),
		ClassName:       r.ClassName,
		Lesson:          r.Lesson,
		OriginalTeacher: r.OriginalTeacher,
	}
}

func (r SubstitutionRecord) String() string {
	return fmt.Sprintf(
		"%s %s/%s %s->%s (%s)",
		r.Date.Format(DateLayout),
		r.ClassName,
		r.Lesson,
		r.OriginalTeacher,
		r.SubstituteTeacher,
		r.Type,
	)
}

// Day is every record published for one calendar date. A day with zero
// records is still meaningful: it was announced but has no substitutions.
type Day struct {
	Date    time.Time
	Records []SubstitutionRecord
}

// WeekPublications maps a week index to its full calendar year. It is
// built once per fetch cycle and never mutated afterwards.
type WeekPublications struct {
	years map[int]int
}

// NewWeekPublications builds the mapping from the two digit year suffixes
// returned by Client.FetchWeekIndex.
func NewWeekPublications(suffixes map[int]int) WeekPublications {
	years := make(map[int]int, len(suffixes))
	for week, suffix := range suffixes {
		years[week] = 2000 + suffix
	}
	return WeekPublications{years: years}
}

// Year returns the calendar year of the given week index.
func (w WeekPublications) Year(week int) (int, bool) {
	year, ok := w.years[week]
	return year, ok
}

// Weeks returns the published week indices in ascending order.
func (w WeekPublications) Weeks() []int {
	weeks := make([]int, 0, len(w.years))
	for week := range w.years {
		weeks = append(weeks, week)
	}
	slices.Sort(weeks)
	return weeks
}

func (w WeekPublications) Len() int {
	return len(w.years)
}
