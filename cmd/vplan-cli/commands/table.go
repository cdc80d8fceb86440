package commands

import (
	"os"

	"vplan-backend/lib/scrapers/untis"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// newTable writes to stdout, pipes get a plain ascii table.
func newTable() table.Writer {
	t := table.NewWriter()
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	t.SetOutputMirror(os.Stdout)
	return t
}

var recordHeader = table.Row{"Date", "Class", "Lesson", "Subject", "Teacher", "Substitute", "Type", "Room", "Text"}

func recordRow(r untis.SubstitutionRecord) table.Row {
	substitute := r.SubstituteTeacher
	if substitute == "" {
		substitute = "-"
	}
	return table.Row{
		r.Date.Format("Mon 02.01.2006"),
		r.ClassName,
		r.Lesson,
		r.Subject,
		r.OriginalTeacher,
		substitute,
		r.Type,
		r.Room,
		r.Text,
	}
}
