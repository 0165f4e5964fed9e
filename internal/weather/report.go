package weather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/i474232898/hyperweather/internal/metrics"
	"github.com/i474232898/hyperweather/pkg/logger"
)

// Reporter generates and serves the daily narrative reports.
type Reporter struct {
	forecasts   *Service
	reports     ReportStore
	narrator    Narrator
	partitioner Partitioner
	tz          *time.Location
	l           *logger.Logger
	now         func() time.Time

	synth Synthesizer
	audio AudioStore
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithPartitioner replaces the default six-record partitioning.
func WithPartitioner(p Partitioner) ReporterOption {
	return func(r *Reporter) { r.partitioner = p }
}

// WithTimezone sets the zone "today" and day bounds are computed in.
func WithTimezone(tz *time.Location) ReporterOption {
	return func(r *Reporter) { r.tz = tz }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) { r.now = now }
}

// WithAudio enables synthesis of new reports and signed audio URLs on read.
// Either argument may be nil.
func WithAudio(synth Synthesizer, audio AudioStore) ReporterOption {
	return func(r *Reporter) {
		r.synth = synth
		r.audio = audio
	}
}

// NewReporter creates a new Reporter.
func NewReporter(forecasts *Service, reports ReportStore, narrator Narrator, l *logger.Logger, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		forecasts:   forecasts,
		reports:     reports,
		narrator:    narrator,
		partitioner: DefaultPartitioner(),
		tz:          time.UTC,
		l:           l,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReportSummary describes the outcome of one report pass.
type ReportSummary struct {
	RunID   string
	Date    string
	Created int
	Skipped int
	Failed  int
}

// RunDaily generates today's report for every supported location that
// does not have one yet. Locations are handled one by one; a failure is
// logged and the pass moves on.
func (r *Reporter) RunDaily(ctx context.Context) (ReportSummary, error) {
	started := time.Now()
	defer func() {
		metrics.PassDuration.WithLabelValues(metrics.PassReport).Observe(time.Since(started).Seconds())
	}()

	today := r.now().In(r.tz)
	summary := ReportSummary{RunID: uuid.NewString(), Date: today.Format(DateLayout)}
	var result *multierror.Error

	for _, loc := range r.forecasts.Locations() {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		key := loc.Key()
		r.l.Info("generating report", map[string]any{"run_id": summary.RunID, "location": key, "date": summary.Date})

		created, err := r.Generate(ctx, key, today)
		switch {
		case err != nil:
			summary.Failed++
			metrics.LocationFailures.WithLabelValues(metrics.PassReport, key).Inc()
			r.l.Warning("report generation failed", map[string]any{
				"run_id":   summary.RunID,
				"location": key,
				"date":     summary.Date,
				"err":      err.Error(),
			})
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
		case created:
			summary.Created++
		default:
			summary.Skipped++
		}
	}

	r.l.Info("report pass completed", map[string]any{
		"run_id":  summary.RunID,
		"date":    summary.Date,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})

	return summary, result.ErrorOrNil()
}

// Generate creates the report of location for the calendar day of date,
// unless one exists already. It reports whether a report was created.
func (r *Reporter) Generate(ctx context.Context, location string, date time.Time) (bool, error) {
	day := date.Format(DateLayout)

	_, err := r.reports.GetReport(ctx, location, day)
	switch {
	case err == nil:
		metrics.ReportsSkipped.Inc()
		r.l.Debug("report already exists", map[string]any{"location": location, "date": day})
		return false, nil
	case !errors.Is(err, ErrReportNotFound):
		return false, fmt.Errorf("look up report: %w", err)
	}

	records, err := r.forecasts.Day(ctx, location, date)
	if err != nil {
		return false, err
	}

	prompt, err := r.partitioner.Prompt(records)
	if err != nil {
		return false, fmt.Errorf("aggregate %d records: %w", len(records), err)
	}

	text, err := r.narrator.Narrate(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("narrate: %w", err)
	}

	report := Report{Location: location, Date: day, Report: text}
	created, err := r.reports.CreateReport(ctx, report)
	if err != nil {
		return false, fmt.Errorf("store report: %w", err)
	}
	if !created {
		// a concurrent pass stored its report first
		r.l.Info("report stored concurrently, discarding narrative", map[string]any{"location": location, "date": day})
		return false, nil
	}
	metrics.ReportsCreated.Inc()

	r.speak(ctx, report)
	return true, nil
}

// speak renders the report to audio. Failures never undo the report.
func (r *Reporter) speak(ctx context.Context, report Report) {
	if r.synth == nil || r.audio == nil {
		return
	}

	key := AudioKey(report.Location, report.Date)
	audio, err := r.synth.Synthesize(ctx, report.Report)
	if err != nil {
		r.l.Error(fmt.Errorf("synthesize report audio: %w", err), map[string]any{"key": key})
		return
	}
	if err := r.audio.Put(ctx, key, bytes.NewReader(audio)); err != nil {
		r.l.Error(fmt.Errorf("upload report audio: %w", err), map[string]any{"key": key})
	}
}

// Report returns the stored report, decorated with a fresh signed audio URL
// when an audio store is configured.
func (r *Reporter) Report(ctx context.Context, location, date string) (Report, error) {
	report, err := r.reports.GetReport(ctx, location, date)
	if err != nil {
		return Report{}, err
	}

	if r.audio != nil {
		url, err := r.audio.SignedURL(ctx, AudioKey(report.Location, report.Date))
		if err != nil {
			r.l.Warning("could not sign report audio url", map[string]any{"location": location, "date": date, "err": err.Error()})
		} else {
			report.AudioURL = url
		}
	}

	return report, nil
}
