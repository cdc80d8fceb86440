package notify

import (
	"fmt"
	"strings"

	"vplan-backend/lib/changedetect"
	"vplan-backend/lib/scrapers/untis"
)

type ChangeKind int

const (
	KindNew ChangeKind = iota
	KindChanged
)

func (k ChangeKind) String() string {
	if k == KindNew {
		return "new"
	}
	return "changed"
}

// Change is a record that is new or changed since the last fetch.
type Change struct {
	Record untis.SubstitutionRecord `json:"record"`
	Kind   ChangeKind               `json:"kind"`
}

// ChangesFromDelta returns the announceable changes of a delta.
func ChangesFromDelta(delta changedetect.Delta) []Change {
	out := make([]Change, 0, len(delta.New)+len(delta.Changed))
	for _, n := range delta.New {
		out = append(out, Change{Record: n.Record, Kind: KindNew})
	}
	for _, c := range delta.Changed {
		out = append(out, Change{Record: c.Record, Kind: KindChanged})
	}
	return out
}

var weekdays = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}

// FormatMessage renders the notification text of a change.
func FormatMessage(change Change) Message {
	r := change.Record

	kind := r.Type
	if kind == "" {
		kind = "Vertretung"
	}
	title := fmt.Sprintf("%s %s, %s. Stunde", kind, r.ClassName, r.Lesson)
	if change.Kind == KindChanged {
		title = "Geändert: " + title
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s %s", weekdays[r.Date.Weekday()], r.Date.Format("02.01."))
	if r.Subject != "" {
		fmt.Fprintf(&body, " %s", r.Subject)
	}
	if r.SubstituteTeacher != "" {
		fmt.Fprintf(&body, ": %s → %s", r.OriginalTeacher, r.SubstituteTeacher)
	} else {
		fmt.Fprintf(&body, ": %s", r.OriginalTeacher)
	}
	if r.Room != "" {
		fmt.Fprintf(&body, ", Raum %s", r.Room)
	}
	if r.SubstituteOf != "" {
		fmt.Fprintf(&body, " (statt %s)", r.SubstituteOf)
	}
	if r.Text != "" {
		body.WriteString("\n")
		body.WriteString(r.Text)
	}

	return Message{
		Title:  title,
		Body:   body.String(),
		Tags:   []string{"vplan", change.Kind.String()},
		Change: &change,
	}
}
