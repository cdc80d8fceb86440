package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vplan-backend/lib/changedetect"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/telemetry"
	"vplan-backend/lib/timezone"
	"vplan-backend/services/notify"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofrs/flock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("vplan.services.ingest")

// ErrCycleRunning is returned when another cycle (in this process or in
// another one sharing the lock file) holds the cycle lock.
var ErrCycleRunning = errors.New("another ingest cycle is running")

// Fetcher is the I/O boundary towards the publication.
type Fetcher interface {
	FetchWeekIndex(ctx context.Context) (map[int]int, error)
	FetchWeekPage(ctx context.Context, week int) (*goquery.Document, error)
}

// DayStore replaces the persisted state of one date atomically.
type DayStore interface {
	ReplaceDay(ctx context.Context, date time.Time, records []untis.SubstitutionRecord) (changedetect.Delta, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, changes []notify.Change) notify.Report
}

type Options struct {
	Parse untis.ParseOptions
	// FetchConcurrency bounds the number of week pages fetched at once.
	FetchConcurrency int
	CycleTimeout     time.Duration
	// LockFile, when set, guards cycles across processes.
	LockFile string
	Clock    timezone.Clock
}

type counters struct {
	new      metric.Int64Counter
	changed  metric.Int64Counter
	removed  metric.Int64Counter
	failures metric.Int64Counter
}

// Service runs the fetch, parse, diff and dispatch cycle.
type Service struct {
	fetcher  Fetcher
	store    DayStore
	notifier Notifier
	opts     Options
	tel      telemetry.API

	running  sync.Mutex
	fileLock *flock.Flock
	counters counters
}

func NewService(fetcher Fetcher, store DayStore, notifier Notifier, opts Options, tel telemetry.API) *Service {
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 2
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = time.Minute * 5
	}
	if opts.Parse.LessonPattern == nil {
		opts.Parse = untis.DefaultParseOptions()
	}
	if opts.Clock == nil {
		opts.Clock = timezone.StandardClock{}
	}

	s := &Service{
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		opts:     opts,
		tel:      tel,
	}
	if opts.LockFile != "" {
		s.fileLock = flock.New(opts.LockFile)
	}

	meter := otel.Meter("vplan.services.ingest")
	s.counters.new, _ = meter.Int64Counter("records_new")
	s.counters.changed, _ = meter.Int64Counter("records_changed")
	s.counters.removed, _ = meter.Int64Counter("records_removed")
	s.counters.failures, _ = meter.Int64Counter("cycle_failures")

	return s
}

// lock acquires the in-process and the cross-process cycle lock, the
// returned function releases both.
func (s *Service) lock() (func(), error) {
	if !s.running.TryLock() {
		return nil, ErrCycleRunning
	}
	if s.fileLock == nil {
		return s.running.Unlock, nil
	}

	locked, err := s.fileLock.TryLock()
	if err != nil {
		s.running.Unlock()
		return nil, fmt.Errorf("lock %s: %w", s.fileLock.Path(), err)
	}
	if !locked {
		s.running.Unlock()
		return nil, ErrCycleRunning
	}
	return func() {
		err := s.fileLock.Unlock()
		if err != nil {
			s.tel.ReportBroken(report_unlock, err)
		}
		s.running.Unlock()
	}, nil
}
