package untis

import (
	"errors"
	"strings"
	"testing"
	"time"

	"vplan-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var weekOne = NewWeekPublications(map[int]int{1: 23})

const weekPage = `<html><body>
<div class="mon_title">21.2.2023 Dienstag, Woche B</div>
<table class="mon_list">
	<tr class="list"><th>Klasse(n)</th><th>Stunde</th><th>Fach</th><th>Vertreter</th><th>(Lehrer)</th><th>Art</th><th>Vertr. von</th><th>Raum</th><th>Text</th></tr>
	<tr class="list odd"><td>10c</td><td>2</td><td>M</td><td>BSU</td><td>gar</td><td>Vertretung</td><td>Mo-21.2./4</td><td>H301</td><td>Aufg. vorhanden</td></tr>
</table>
<div class="mon_title">22.2.2023 Mittwoch</div>
<table class="mon_list">
	<tr class="list"><th>Klasse(n)</th></tr>
	<tr class="list odd"><td>5ab</td><td>3 - 4</td><td>D5</td><td>+</td><td>MÜL</td><td>Entfall</td><td>&nbsp;</td><td>---</td><td>&nbsp;</td></tr>
	<tr class="list"><td>&nbsp;</td><td colspan="8">Arbeitsblatt</td></tr>
	<tr class="list"><td>&nbsp;</td><td colspan="8">im Fach</td></tr>
</table>
<div class="mon_title">23.2.2023 Donnerstag</div>
<table class="mon_list"><tr class="list"><th>Klasse(n)</th></tr></table>
</body></html>`

func TestParseDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(weekPage))
	require.NoError(t, err)

	page := ParseDocument(1, weekOne, doc, DefaultParseOptions())
	require.Empty(t, page.Errors)
	require.Empty(t, page.Orphans)
	require.Len(t, page.Days, 3)

	expected := []Day{
		{
			Date: timezone.Date(2023, time.February, 21),
			Records: []SubstitutionRecord{{
				Date:              timezone.Date(2023, time.February, 21),
				ClassName:         "10c",
				Lesson:            "2",
				SubstituteTeacher: "BSU",
				OriginalTeacher:   "GAR",
				Type:              "Vertretung",
				SubstituteOf:      "Mo-21.2./4",
				Room:              "H301",
				Text:              "Aufg. vorhanden",
			}},
		},
		{
			Date: timezone.Date(2023, time.February, 22),
			Records: []SubstitutionRecord{{
				Date:              timezone.Date(2023, time.February, 22),
				ClassName:         "5ab",
				Lesson:            "3 - 4",
				Subject:           "D5",
				SubstituteTeacher: "+",
				OriginalTeacher:   "MÜL",
				Type:              "Entfall",
				Text:              "Arbeitsblatt im Fach",
			}},
		},
		{Date: timezone.Date(2023, time.February, 23)},
	}
	if diff := cmp.Diff(expected, page.Days); diff != "" {
		t.Fatal(diff)
	}
}

func TestContinuationStaysInTable(t *testing.T) {
	blocks := []Block{
		{Kind: BlockBanner, Text: "21.2."},
		{Kind: BlockTable, Rows: [][]string{
			{"10c", "2", "", "BSU", "GAR", "Vertretung", "", "H301", ""},
		}},
		{Kind: BlockTable, Rows: [][]string{
			{"", "nicht angehängt"},
			{"7a", "1", "", "", "KOE", "Entfall", "", "---", "first"},
			{"", "second"},
			{"", ""},
			{"", "third"},
		}},
	}

	page := ParsePage(1, weekOne, blocks, DefaultParseOptions())
	require.Empty(t, page.Errors)
	require.Equal(t, [][]string{{"", "nicht angehängt"}}, page.Orphans)

	records := page.Records()
	require.Len(t, records, 2)
	require.Equal(t, "", records[0].Text)
	require.Equal(t, "first second third", records[1].Text)
}

func TestEmptyRowsAreSkipped(t *testing.T) {
	blocks := []Block{
		{Kind: BlockBanner, Text: "21.2."},
		{Kind: BlockTable, Rows: [][]string{
			{},
			{"10c", "2", "M", "BSU", "gar", "Vertretung", "", "H301", ""},
			{},
			{"", "Aufg. vorhanden"},
		}},
	}

	var page Page
	require.NotPanics(t, func() {
		page = ParsePage(1, weekOne, blocks, DefaultParseOptions())
	})
	require.Empty(t, page.Errors)
	require.Empty(t, page.Orphans)
	records := page.Records()
	require.Len(t, records, 1)
	require.Equal(t, "Aufg. vorhanden", records[0].Text)
}

func TestContinuationAfterRejectedRow(t *testing.T) {
	blocks := []Block{
		{Kind: BlockBanner, Text: "21.2."},
		{Kind: BlockTable, Rows: [][]string{
			{"10c", "2", "", "BSU", "GAR", "Vertretung"},
			{"10d", "", "", "BSU", "GAR", "Vertretung"},
			{"", "belongs to the rejected row"},
		}},
	}
	page := ParsePage(1, weekOne, blocks, DefaultParseOptions())

	var rejected *RowRejectedError
	require.Len(t, page.Errors, 1)
	require.True(t, errors.As(page.Errors[0], &rejected))
	require.Equal(t, "lesson", rejected.Field)
	require.Len(t, page.Orphans, 1)
	require.Equal(t, "", page.Records()[0].Text)
}

func TestMissingDate(t *testing.T) {
	blocks := []Block{
		{Kind: BlockTable, Rows: [][]string{
			{"10c", "2", "", "BSU", "GAR"},
		}},
		{Kind: BlockBanner, Text: "21.2."},
		{Kind: BlockTable, Rows: [][]string{
			{"10c", "3", "", "BSU", "GAR"},
		}},
	}
	page := ParsePage(1, weekOne, blocks, DefaultParseOptions())

	var missing *MissingDateError
	require.Len(t, page.Errors, 1)
	require.True(t, errors.As(page.Errors[0], &missing))

	records := page.Records()
	require.Len(t, records, 1)
	require.Equal(t, "3", records[0].Lesson)
}

func TestDateResolution(t *testing.T) {
	t.Run("unknown week keeps prior cursor", func(t *testing.T) {
		pubs := NewWeekPublications(map[int]int{1: 23})
		blocks := []Block{
			{Kind: BlockBanner, Text: "21.2."},
			{Kind: BlockBanner, Text: "kein Datum"},
			{Kind: BlockTable, Rows: [][]string{{"10c", "2", "", "", "GAR"}}},
		}
		page := ParsePage(1, pubs, blocks, DefaultParseOptions())

		var resolution *DateResolutionError
		require.Len(t, page.Errors, 1)
		require.True(t, errors.As(page.Errors[0], &resolution))
		require.Equal(t, timezone.Date(2023, time.February, 21), page.Records()[0].Date)
	})

	t.Run("week without year", func(t *testing.T) {
		blocks := []Block{
			{Kind: BlockBanner, Text: "21.2."},
			{Kind: BlockTable, Rows: [][]string{{"10c", "2", "", "", "GAR"}}},
		}
		page := ParsePage(2, weekOne, blocks, DefaultParseOptions())
		require.Len(t, page.Errors, 2)

		var resolution *DateResolutionError
		var missing *MissingDateError
		require.True(t, errors.As(page.Errors[0], &resolution))
		require.True(t, errors.As(page.Errors[1], &missing))
		require.Empty(t, page.Days)
	})

	t.Run("impossible date", func(t *testing.T) {
		_, err := ResolveBanner(1, weekOne, "31.2.")
		var resolution *DateResolutionError
		require.True(t, errors.As(err, &resolution))
	})
}

func TestParseRow(t *testing.T) {
	date := timezone.Date(2023, time.February, 21)
	opts := DefaultParseOptions()

	testCases := []struct {
		name     string
		cells    []string
		expected SubstitutionRecord
		field    string
	}{
		{
			name:  "short row",
			cells: []string{"Q1", "5", "", "", "abc"},
			expected: SubstitutionRecord{
				Date:            date,
				ClassName:       "Q1",
				Lesson:          "5",
				OriginalTeacher: "ABC",
			},
		},
		{
			name:  "noise subject and placeholder room",
			cells: []string{"6b", "1", "Sp", "", "xy", "Raum-Vtr.", "Fr", "---", " "},
			expected: SubstitutionRecord{
				Date:            date,
				ClassName:       "6b",
				Lesson:          "1",
				OriginalTeacher: "XY",
				Type:            "Raum-Vtr.",
			},
		},
		{name: "missing class", cells: []string{"", "1", "", "", "XY"}, field: "class"},
		{name: "missing teacher", cells: []string{"6b", "1", "", "BSU"}, field: "original teacher"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := ParseRow(tc.cells, date, opts)
			if tc.field != "" {
				var rejected *RowRejectedError
				require.True(t, errors.As(err, &rejected))
				require.Equal(t, tc.field, rejected.Field)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, record)
		})
	}
}

func TestCustomLessonPattern(t *testing.T) {
	opts, err := CompileParseOptions("", "", `^\d`, "-")
	require.NoError(t, err)
	require.Equal(t, DefaultBannerSelector, opts.BannerSelector)

	// "Q1" no longer starts a record with this pattern
	require.True(t, IsContinuation([]string{"Q1", "1"}, opts))
	require.False(t, IsContinuation([]string{"5a", "1"}, opts))

	record, err := ParseRow([]string{"5a", "1", "", "", "XY", "", "", "-"}, time.Time{}, opts)
	require.NoError(t, err)
	require.Empty(t, record.Room)

	_, err = CompileParseOptions("", "", `(`, "")
	require.Error(t, err)
}
