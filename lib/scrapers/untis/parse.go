package untis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"vplan-backend/lib/htmlutil"
	"vplan-backend/lib/textutil"
	"vplan-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultBannerSelector  = "div.mon_title"
	DefaultTableSelector   = "table.mon_list"
	DefaultLessonPattern   = `(.*)[0-9](.*)`
	DefaultRoomPlaceholder = "---"
)

// ParseOptions holds the markup heuristics, they are configurable since
// the publication's layout may drift.
type ParseOptions struct {
	BannerSelector string
	TableSelector  string
	// LessonPattern decides whether the first cell of a row starts a new
	// record, rows that don't match are continuation rows.
	LessonPattern *regexp.Regexp
	// RoomPlaceholder is the room cell value meaning "no room".
	RoomPlaceholder string
}

func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		BannerSelector:  DefaultBannerSelector,
		TableSelector:   DefaultTableSelector,
		LessonPattern:   regexp.MustCompile(DefaultLessonPattern),
		RoomPlaceholder: DefaultRoomPlaceholder,
	}
}

// CompileParseOptions builds ParseOptions from configuration values, empty
// values fall back to the defaults.
func CompileParseOptions(bannerSelector, tableSelector, lessonPattern, roomPlaceholder string) (ParseOptions, error) {
	opts := DefaultParseOptions()
	if bannerSelector != "" {
		opts.BannerSelector = bannerSelector
	}
	if tableSelector != "" {
		opts.TableSelector = tableSelector
	}
	if lessonPattern != "" {
		pattern, err := regexp.Compile(lessonPattern)
		if err != nil {
			return opts, fmt.Errorf("compile lesson pattern: %w", err)
		}
		opts.LessonPattern = pattern
	}
	if roomPlaceholder != "" {
		opts.RoomPlaceholder = roomPlaceholder
	}
	return opts, nil
}

type BlockKind int

const (
	BlockBanner BlockKind = iota
	BlockTable
)

// Block is either a day banner or a table of rows, in document order.
type Block struct {
	Kind BlockKind
	// Text is the banner text.
	Text string
	// Rows are the cleaned cell texts of every row with at least one cell.
	Rows [][]string
}

// ExtractBlocks locates the banner and table regions of a week page.
func ExtractBlocks(doc *goquery.Document, opts ParseOptions) []Block {
	var blocks []Block
	selector := fmt.Sprintf("%s, %s", opts.BannerSelector, opts.TableSelector)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if s.Is(opts.BannerSelector) {
			blocks = append(blocks, Block{
				Kind: BlockBanner,
				Text: htmlutil.NodeText(s.Get(0)),
			})
			return
		}

		table := Block{Kind: BlockTable}
		s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			tds := tr.ChildrenFiltered("td")
			if tds.Length() == 0 {
				return
			}
			cells := make([]string, tds.Length())
			for i, td := range tds.Nodes {
				cells[i] = htmlutil.NodeText(td)
			}
			table.Rows = append(table.Rows, cells)
		})
		blocks = append(blocks, table)
	})
	return blocks
}

// Page is the result of scanning one week page.
type Page struct {
	Week int
	// Days are in banner order, including days without records.
	Days []Day
	// Errors are the non-fatal problems met while scanning, each one is a
	// *DateResolutionError, *MissingDateError or *RowRejectedError.
	Errors []error
	// Orphans are continuation rows with no preceding record in their table.
	Orphans [][]string
}

// Records returns every record of the page in order.
func (p Page) Records() []SubstitutionRecord {
	var out []SubstitutionRecord
	for _, d := range p.Days {
		out = append(out, d.Records...)
	}
	return out
}

type cursorState int

const (
	noCurrentDate cursorState = iota
	haveCurrentDate
)

type recordRef struct {
	day    int
	record int
}

// pageScan is the row scanning state machine of a single page, the date
// cursor lives here and nowhere else.
type pageScan struct {
	opts ParseOptions
	pubs WeekPublications
	page Page

	state  cursorState
	cursor time.Time
	// last is the most recent record of the current table.
	last *recordRef
}

// ParsePage runs the row scanner over the blocks of one week page.
func ParsePage(week int, pubs WeekPublications, blocks []Block, opts ParseOptions) Page {
	scan := &pageScan{
		opts: opts,
		pubs: pubs,
		page: Page{Week: week},
	}
	for _, block := range blocks {
		switch block.Kind {
		case BlockBanner:
			scan.banner(block.Text)
		case BlockTable:
			scan.table(block.Rows)
		}
	}
	return scan.page
}

// ParseDocument is ExtractBlocks followed by ParsePage.
func ParseDocument(week int, pubs WeekPublications, doc *goquery.Document, opts ParseOptions) Page {
	return ParsePage(week, pubs, ExtractBlocks(doc, opts), opts)
}

var bannerDate = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.`)

func (s *pageScan) banner(text string) {
	date, err := ResolveBanner(s.page.Week, s.pubs, text)
	if err != nil {
		s.page.Errors = append(s.page.Errors, err)
		return
	}
	s.state = haveCurrentDate
	s.cursor = date
	s.dayIndex(date)
}

// ResolveBanner turns the day and month of a banner into a date using the
// year of the banner's week.
func ResolveBanner(week int, pubs WeekPublications, text string) (time.Time, error) {
	year, ok := pubs.Year(week)
	if !ok {
		return time.Time{}, &DateResolutionError{Week: week, Banner: text, Reason: "week is not in the week index"}
	}
	groups := bannerDate.FindStringSubmatch(text)
	if len(groups) < 3 {
		return time.Time{}, &DateResolutionError{Week: week, Banner: text, Reason: "no day and month"}
	}
	day, _ := strconv.Atoi(groups[1])
	month, _ := strconv.Atoi(groups[2])

	date := timezone.Date(year, time.Month(month), day)
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, &DateResolutionError{Week: week, Banner: text, Reason: "not a calendar date"}
	}
	return date, nil
}

func (s *pageScan) dayIndex(date time.Time) int {
	for i, d := range s.page.Days {
		if d.Date.Equal(date) {
			return i
		}
	}
	s.page.Days = append(s.page.Days, Day{Date: date})
	return len(s.page.Days) - 1
}

func (s *pageScan) table(rows [][]string) {
	// continuations never cross a table boundary
	s.last = nil

	for _, cells := range rows {
		// a row without cells carries nothing, not even continuation text
		if len(cells) == 0 {
			continue
		}
		if IsContinuation(cells, s.opts) {
			s.continuation(cells)
			continue
		}

		if s.state == noCurrentDate {
			s.page.Errors = append(s.page.Errors, &MissingDateError{Week: s.page.Week, Cells: cells})
			s.last = nil
			continue
		}

		record, err := ParseRow(cells, s.cursor, s.opts)
		if err != nil {
			s.page.Errors = append(s.page.Errors, err)
			s.last = nil
			continue
		}

		day := s.dayIndex(s.cursor)
		s.page.Days[day].Records = append(s.page.Days[day].Records, record)
		s.last = &recordRef{day: day, record: len(s.page.Days[day].Records) - 1}
	}
}

func (s *pageScan) continuation(cells []string) {
	if s.last == nil {
		s.page.Orphans = append(s.page.Orphans, cells)
		return
	}
	text := cells[len(cells)-1]
	if text == "" {
		return
	}
	record := &s.page.Days[s.last.day].Records[s.last.record]
	if record.Text == "" {
		record.Text = text
		return
	}
	record.Text = record.Text + " " + text
}

// IsContinuation reports whether a row only carries additional text for
// the previous record.
func IsContinuation(cells []string, opts ParseOptions) bool {
	if len(cells) == 0 {
		return true
	}
	return !opts.LessonPattern.MatchString(cells[0])
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// ParseRow maps the positional cells of a record row onto a record.
func ParseRow(cells []string, date time.Time, opts ParseOptions) (SubstitutionRecord, error) {
	record := SubstitutionRecord{Date: date}
	for i, cell := range cells {
		switch i {
		case 0:
			record.ClassName = cell
		case 1:
			record.Lesson = cell
		case 2:
			if containsDigit(cell) {
				record.Subject = cell
			}
		case 3:
			record.SubstituteTeacher = cell
		case 4:
			record.OriginalTeacher = textutil.NormalizeTeacher(cell)
		case 5:
			record.Type = cell
		case 6:
			if containsDigit(cell) {
				record.SubstituteOf = cell
			}
		case 7:
			if cell != opts.RoomPlaceholder {
				record.Room = cell
			}
		case 8:
			if strings.TrimSpace(cell) != "" {
				record.Text = cell
			}
		}
	}

	switch {
	case record.ClassName == "":
		return SubstitutionRecord{}, &RowRejectedError{Field: "class", Cells: cells}
	case record.Lesson == "":
		return SubstitutionRecord{}, &RowRejectedError{Field: "lesson", Cells: cells}
	case record.OriginalTeacher == "":
		return SubstitutionRecord{}, &RowRejectedError{Field: "original teacher", Cells: cells}
	}
	return record, nil
}
