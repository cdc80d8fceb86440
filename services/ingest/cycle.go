package ingest

import (
	"context"
	"sort"
	"time"

	"vplan-backend/lib/changedetect"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/services/notify"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	report_unlock           = "cycle.unlock"
	report_fetch_week_index = "cycle.fetch-week-index"
	report_fetch_week       = "cycle.fetch-week"
	report_parse            = "cycle.parse"
	report_replace_day      = "cycle.replace-day"
)

const dispatchTimeout = time.Minute

// CycleReport summarises one cycle.
type CycleReport struct {
	Started  time.Time
	Duration time.Duration

	Weeks      int
	Days       int
	Delta      changedetect.Delta
	Dispatched int
	// Err aggregates every non-fatal error of the cycle.
	Err error
}

func (r CycleReport) New() int       { return len(r.Delta.New) }
func (r CycleReport) Changed() int   { return len(r.Delta.Changed) }
func (r CycleReport) Unchanged() int { return len(r.Delta.Unchanged) }
func (r CycleReport) Removed() int   { return len(r.Delta.Removed) }

type weekResult struct {
	week int
	page untis.Page
	err  error
}

// RunCycle runs a single cycle. It returns ErrCycleRunning without doing
// anything when another cycle holds the lock, every other problem ends up
// in CycleReport.Err.
func (s *Service) RunCycle(ctx context.Context) (CycleReport, error) {
	unlock, err := s.lock()
	if err != nil {
		return CycleReport{}, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	report := CycleReport{Started: s.opts.Clock.Now()}
	s.run(ctx, &report)
	report.Duration = s.opts.Clock.Now().Sub(report.Started)

	span.SetAttributes(
		attribute.Int("weeks", report.Weeks),
		attribute.Int("days", report.Days),
		attribute.Int("new", report.New()),
		attribute.Int("changed", report.Changed()),
		attribute.Int("removed", report.Removed()),
	)
	if report.Err != nil {
		span.RecordError(report.Err)
		span.SetStatus(codes.Error, "cycle finished with errors")
		s.counters.failures.Add(ctx, 1)
	}

	s.tel.ReportCount("cycle.new", int64(report.New()))
	s.tel.ReportCount("cycle.changed", int64(report.Changed()))
	s.tel.ReportCount("cycle.removed", int64(report.Removed()))
	return report, nil
}

func (s *Service) run(ctx context.Context, report *CycleReport) {
	suffixes, err := s.fetcher.FetchWeekIndex(ctx)
	if err != nil {
		s.tel.ReportBroken(report_fetch_week_index, err)
		report.Err = multierror.Append(report.Err, err)
		return
	}
	pubs := untis.NewWeekPublications(suffixes)
	report.Weeks = pubs.Len()

	results := s.fetchWeeks(ctx, pubs)

	days := s.mergeDays(report, results)
	report.Days = len(days)

	var changes []notify.Change
	for _, day := range days {
		delta, err := s.store.ReplaceDay(ctx, day.Date, day.Records)
		if err != nil {
			s.tel.ReportBroken(report_replace_day, day.Date.Format(untis.DateLayout), err)
			report.Err = multierror.Append(report.Err, err)
			continue
		}
		report.Delta.Merge(delta)
		changes = append(changes, notify.ChangesFromDelta(delta)...)

		s.counters.new.Add(ctx, int64(len(delta.New)))
		s.counters.changed.Add(ctx, int64(len(delta.Changed)))
		s.counters.removed.Add(ctx, int64(len(delta.Removed)))
	}

	if len(changes) == 0 {
		return
	}
	// committed days are announced even when the cycle deadline has passed,
	// their hashes are stored and a later cycle would not see them again
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	dispatch := s.notifier.Dispatch(dispatchCtx, changes)
	report.Dispatched = dispatch.Sent
	if dispatch.Err != nil {
		report.Err = multierror.Append(report.Err, dispatch.Err)
	}
}

// fetchWeeks fetches and parses every week with bounded concurrency, each
// page gets its own scan so the date cursor is never shared.
func (s *Service) fetchWeeks(ctx context.Context, pubs untis.WeekPublications) []weekResult {
	weeks := pubs.Weeks()
	results := make([]weekResult, len(weeks))

	var group errgroup.Group
	group.SetLimit(s.opts.FetchConcurrency)
	for i, week := range weeks {
		i, week := i, week
		group.Go(func() error {
			results[i].week = week
			doc, err := s.fetcher.FetchWeekPage(ctx, week)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].page = untis.ParseDocument(week, pubs, doc, s.opts.Parse)
			return nil
		})
	}
	group.Wait()

	return results
}

// mergeDays groups the records of every page by date, days are returned
// in ascending order.
func (s *Service) mergeDays(report *CycleReport, results []weekResult) []untis.Day {
	index := map[string]int{}
	var days []untis.Day

	for _, result := range results {
		if result.err != nil {
			s.tel.ReportBroken(report_fetch_week, result.week, result.err)
			report.Err = multierror.Append(report.Err, result.err)
			continue
		}
		for _, err := range result.page.Errors {
			s.tel.ReportWarning(report_parse, result.week, err)
		}
		for _, orphan := range result.page.Orphans {
			s.tel.ReportDebug("continuation row without record", result.week, orphan)
		}
		for _, day := range result.page.Days {
			key := day.Date.Format(untis.DateLayout)
			i, ok := index[key]
			if !ok {
				i = len(days)
				index[key] = i
				days = append(days, untis.Day{Date: day.Date})
			}
			days[i].Records = append(days[i].Records, day.Records...)
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}
