package untis

import (
	"context"
	"regexp"
	"strconv"

	"vplan-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var weekOptionDate = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)

// ParseWeekIndex reads `select[name=week] option` elements, the option
// value is the week index and its text carries the week's start date.
// Options that cannot be read are returned as skipped.
func ParseWeekIndex(ctx context.Context, doc *goquery.Document) (map[int]int, []htmlutil.Option) {
	weeks := map[int]int{}
	var skipped []htmlutil.Option

	for _, option := range htmlutil.GetOptions(ctx, doc.Find("select[name=week]")) {
		week, err := strconv.Atoi(option.Value)
		if err != nil {
			skipped = append(skipped, option)
			continue
		}
		groups := weekOptionDate.FindStringSubmatch(option.Text)
		if len(groups) < 4 {
			skipped = append(skipped, option)
			continue
		}
		year, err := strconv.Atoi(groups[3])
		if err != nil {
			skipped = append(skipped, option)
			continue
		}
		weeks[week] = year % 100
	}

	return weeks, skipped
}
