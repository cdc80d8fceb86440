package ingest

import (
	"context"
	"errors"
	"fmt"

	"vplan-backend/lib/telemetry"
	"vplan-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 10m"

// Scheduler triggers ingest cycles on a cron spec, a tick that finds the
// previous cycle still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	tel     telemetry.API
}

func NewScheduler(service *Service, tel telemetry.API) *Scheduler {
	logger := cronLogger{tel: tel}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithLocation(timezone.Location),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		service: service,
		tel:     tel,
	}
}

// Schedule registers the cycle under spec, ctx is passed to every cycle.
func (s *Scheduler) Schedule(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, the returned context is done once a running
// cycle has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick runs one cycle and reports its outcome.
func (s *Scheduler) Tick(ctx context.Context) CycleReport {
	report, err := s.service.RunCycle(ctx)
	if errors.Is(err, ErrCycleRunning) {
		s.tel.ReportWarning("scheduler.skip-tick", err)
		return report
	}
	if err != nil {
		s.tel.ReportBroken("scheduler.tick", err)
		return report
	}
	s.tel.ReportDebug(
		"cycle finished",
		fmt.Sprintf("weeks=%d days=%d new=%d changed=%d removed=%d dispatched=%d took=%s",
			report.Weeks, report.Days, report.New(), report.Changed(), report.Removed(),
			report.Dispatched, report.Duration),
	)
	return report
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(fmt.Sprintf("cron: %s", msg), l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...,
	)
}
