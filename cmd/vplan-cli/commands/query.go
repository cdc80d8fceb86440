package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"vplan-backend/internal/pipeline"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/substore"
	"vplan-backend/lib/textutil"
	"vplan-backend/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	queryClass   *string
	queryTeacher *string
	queryLesson  *string
	queryFrom    *string
	queryTo      *string
	queryDays    *int
)

func init() {
	queryClass = queryCmd.Flags().String("class", "", "Only show records affecting this class.")
	queryTeacher = queryCmd.Flags().String("teacher", "", "Only show records of this teacher (original or substitute).")
	queryLesson = queryCmd.Flags().String("lesson", "", "Only show this lesson (requires a single day).")
	queryFrom = queryCmd.Flags().String("from", "", "First day (dd.mm.yyyy or yyyy-mm-dd), defaults to today.")
	queryTo = queryCmd.Flags().String("to", "", "Last day (dd.mm.yyyy or yyyy-mm-dd).")
	queryDays = queryCmd.Flags().Int("days", 7, "Number of days shown when --to is not given.")
	rootCmd.AddCommand(queryCmd)
}

var dateLayouts = []string{"02.01.2006", "2.1.2006", untis.DateLayout}

func parseDay(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, timezone.Location)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date (expected dd.mm.yyyy or yyyy-mm-dd)", value)
}

func queryRange() (time.Time, time.Time, error) {
	from := timezone.StartOfDay(timezone.Now())
	if *queryFrom != "" {
		var err error
		from, err = parseDay(*queryFrom)
		if err != nil {
			return from, from, err
		}
	}
	to := from.AddDate(0, 0, max(*queryDays-1, 0))
	if *queryTo != "" {
		var err error
		to, err = parseDay(*queryTo)
		if err != nil {
			return from, to, err
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--to lies before --from")
	}
	return from, to, nil
}

// checkKnown prints similarly named candidates when value is not among
// them and reports whether it was found.
func checkKnown(kind, value string, candidates []string) bool {
	if slices.ContainsFunc(candidates, func(c string) bool {
		return textutil.NormalizeName(c) == textutil.NormalizeName(value)
	}) {
		return true
	}
	suggestions := textutil.Suggest(value, candidates, 0.75, 3)
	if len(suggestions) == 0 {
		fmt.Fprintf(os.Stderr, "no %s named %q is on record\n", kind, value)
		return false
	}
	fmt.Fprintf(os.Stderr, "no %s named %q is on record, did you mean: %s?\n", kind, value, strings.Join(suggestions, ", "))
	return false
}

func runQuery(ctx context.Context, store substore.Store, from, to time.Time) ([]untis.SubstitutionRecord, error) {
	switch {
	case *queryLesson != "":
		if !from.Equal(to) {
			return nil, fmt.Errorf("--lesson needs a single day, set --days 1 or --to")
		}
		records, err := store.ListByLesson(ctx, from, *queryLesson)
		if err != nil || *queryClass == "" {
			return records, err
		}
		return slices.DeleteFunc(records, func(r untis.SubstitutionRecord) bool {
			return !slices.Contains(splitLabel(r.ClassName), *queryClass)
		}), nil
	case *queryClass != "":
		classes, err := store.Classes(ctx)
		if err != nil {
			return nil, err
		}
		if !checkKnown("class", *queryClass, classes) {
			return nil, nil
		}
		return store.ListByClass(ctx, from, to, *queryClass)
	case *queryTeacher != "":
		teachers, err := store.Teachers(ctx)
		if err != nil {
			return nil, err
		}
		teacher := textutil.NormalizeTeacher(*queryTeacher)
		if !checkKnown("teacher", teacher, teachers) {
			return nil, nil
		}
		return store.ListByTeacher(ctx, from, to, teacher)
	default:
		return store.ListRange(ctx, from, to)
	}
}

var queryCmd = &cobra.Command{
	Use:   "query [--class <class> | --teacher <teacher>] [--lesson <lesson>] [--from <day>] [--to <day>]",
	Short: "Lists persisted substitutions.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		from, to, err := queryRange()
		if err != nil {
			serviceutil.Fatal("invalid range", err)
		}

		database, store, err := pipeline.OpenStore(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		records, err := runQuery(cmd.Context(), store, from, to)
		if err != nil {
			serviceutil.Fatal("failed to query", err)
		}

		t := newTable()
		t.AppendHeader(recordHeader)
		for _, r := range records {
			t.AppendRow(recordRow(r))
		}
		t.Render()
	},
}
