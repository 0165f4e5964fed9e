package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/hyperweather/internal/weather"
	"github.com/i474232898/hyperweather/pkg/logger"
)

// Ingester runs one ingestion pass over all supported locations.
type Ingester interface {
	IngestAll(ctx context.Context) (weather.IngestSummary, error)
}

// DailyReporter runs one report pass for today.
type DailyReporter interface {
	RunDaily(ctx context.Context) (weather.ReportSummary, error)
}

// Scheduler periodically triggers the ingestion pass and, once a day, the
// report pass. Both run one at a time; a pass still running when its next
// tick fires is not started twice.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingester  Ingester
	reporter  DailyReporter
	interval  time.Duration
	reportAt  string
	timeout   time.Duration
	l         *logger.Logger
}

// New creates a new Scheduler. reportAt is a daily HH:MM in tz.
func New(ingester Ingester, reporter DailyReporter, interval time.Duration, reportAt string, tz *time.Location, l *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(tz)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		ingester:  ingester,
		reporter:  reporter,
		interval:  interval,
		reportAt:  reportAt,
		timeout:   10 * time.Minute,
		l:         l,
	}
}

// Start schedules both jobs and starts the underlying scheduler. The first
// ingestion runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = time.Hour
	}

	if _, err := s.scheduler.Every(interval).Do(s.runIngest); err != nil {
		return err
	}

	if s.reporter != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.reportAt).Do(s.runReport); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runIngest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.ingester.IngestAll(ctx)
	if err != nil {
		s.l.Warning("scheduler: ingestion pass finished with failures", map[string]any{
			"run_id": summary.RunID,
			"failed": summary.Failed,
			"err":    err.Error(),
		})
	}
}

func (s *Scheduler) runReport() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.reporter.RunDaily(ctx)
	if err != nil {
		s.l.Warning("scheduler: report pass finished with failures", map[string]any{
			"run_id": summary.RunID,
			"date":   summary.Date,
			"failed": summary.Failed,
			"err":    err.Error(),
		})
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
