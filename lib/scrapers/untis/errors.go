package untis

import (
	"fmt"
	"strings"
)

// IndexPage is the week value FetchError carries for the week index.
const IndexPage = -1

// FetchError is a network failure or non-success status for one page.
type FetchError struct {
	Week   int
	Url    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	page := "week index"
	if e.Week != IndexPage {
		page = fmt.Sprintf("week %d", e.Week)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %s", page, e.Url, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s (%s): unexpected status %d", page, e.Url, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DateResolutionError is a day banner that could not be turned into a date.
type DateResolutionError struct {
	Week   int
	Banner string
	Reason string
}

func (e *DateResolutionError) Error() string {
	return fmt.Sprintf("resolve banner %q in week %d: %s", e.Banner, e.Week, e.Reason)
}

// MissingDateError is a record row seen before any banner established a date.
type MissingDateError struct {
	Week  int
	Cells []string
}

func (e *MissingDateError) Error() string {
	return fmt.Sprintf("row [%s] in week %d has no date", strings.Join(e.Cells, "|"), e.Week)
}

// RowRejectedError is a record row missing one of the mandatory fields.
type RowRejectedError struct {
	Field string
	Cells []string
}

func (e *RowRejectedError) Error() string {
	return fmt.Sprintf("row [%s] is missing %s", strings.Join(e.Cells, "|"), e.Field)
}
