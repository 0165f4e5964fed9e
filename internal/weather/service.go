package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/i474232898/hyperweather/internal/metrics"
	"github.com/i474232898/hyperweather/pkg/logger"
)

// Service runs the ingestion pipeline and serves range queries over the
// canonical store.
type Service struct {
	store     Store
	provider  Provider
	locations []Location
	l         *logger.Logger
	now       func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, locations []Location, l *logger.Logger) *Service {
	return &Service{
		store:     store,
		provider:  provider,
		locations: locations,
		l:         l,
		now:       time.Now,
	}
}

// Locations returns the supported locations.
func (s *Service) Locations() []Location {
	return s.locations
}

// IngestSummary describes the outcome of one ingestion pass.
type IngestSummary struct {
	RunID     string
	Locations int
	Failed    int
	Stored    int
	Rejected  int
}

// IngestAll fetches, normalizes and stores the series of every supported
// location, one at a time. A failing location is logged and skipped; the
// failures are returned together as a multierror next to the summary.
func (s *Service) IngestAll(ctx context.Context) (IngestSummary, error) {
	started := time.Now()
	defer func() {
		metrics.PassDuration.WithLabelValues(metrics.PassIngest).Observe(time.Since(started).Seconds())
	}()

	summary := IngestSummary{RunID: uuid.NewString(), Locations: len(s.locations)}
	var result *multierror.Error

	s.l.Info("ingestion pass started", map[string]any{"run_id": summary.RunID, "locations": len(s.locations)})

	for _, loc := range s.locations {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		stored, rejected, err := s.FetchAndStore(ctx, loc)
		summary.Stored += stored
		summary.Rejected += rejected
		if err != nil {
			summary.Failed++
			metrics.LocationFailures.WithLabelValues(metrics.PassIngest, loc.Key()).Inc()
			s.l.Warning("ingestion failed for location", map[string]any{
				"run_id":   summary.RunID,
				"location": loc.Key(),
				"err":      err.Error(),
			})
			result = multierror.Append(result, fmt.Errorf("%s: %w", loc.Key(), err))
		}
	}

	s.l.Info("ingestion pass completed", map[string]any{
		"run_id":   summary.RunID,
		"failed":   summary.Failed,
		"stored":   summary.Stored,
		"rejected": summary.Rejected,
	})

	return summary, result.ErrorOrNil()
}

// FetchAndStore ingests one location. Instants that cannot be normalized
// are logged and left out; everything else is upserted.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) (stored, rejected int, err error) {
	if s.provider == nil {
		return 0, 0, errors.New("no forecast provider configured")
	}

	key := loc.Key()
	series, err := s.provider.FetchSeries(ctx, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch series from %s: %w", s.provider.Name(), err)
	}

	records, itemErrs := NormalizeSeries(key, series)
	for _, itemErr := range itemErrs {
		metrics.ItemsRejected.WithLabelValues(key).Inc()
		s.l.Error(itemErr, map[string]any{"location": key})
	}

	if len(records) == 0 {
		s.l.Warning("no records to store", map[string]any{"location": key, "instants": len(series)})
		return 0, len(itemErrs), nil
	}

	if err := s.store.UpsertRecords(ctx, records); err != nil {
		return 0, len(itemErrs), fmt.Errorf("store records: %w", err)
	}
	metrics.RecordsStored.WithLabelValues(key).Add(float64(len(records)))

	s.l.Debug("stored forecast records", map[string]any{"location": key, "records": len(records)})
	return len(records), len(itemErrs), nil
}

// Forecast returns the records of a location, optionally only those at or
// after the current time.
func (s *Service) Forecast(ctx context.Context, location string, fromNow bool) ([]Record, error) {
	var cutoff time.Time
	if fromNow {
		cutoff = s.now()
	}
	return s.ForecastSince(ctx, location, cutoff)
}

// ForecastSince returns the records of a location with timestamp >= cutoff.
// A zero cutoff returns the whole series.
func (s *Service) ForecastSince(ctx context.Context, location string, cutoff time.Time) ([]Record, error) {
	records, err := s.store.Records(ctx, location, cutoff, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("query records for %s: %w", location, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Day returns the records of a location falling on the calendar day of
// date in date's location, bounds inclusive. In zones with daylight saving
// a transition day holds 23 or 25 hourly records.
func (s *Service) Day(ctx context.Context, location string, date time.Time) ([]Record, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, date.Location())

	records, err := s.store.Records(ctx, location, start, end)
	if err != nil {
		return nil, fmt.Errorf("query day %s for %s: %w", start.Format(DateLayout), location, err)
	}
	return records, nil
}
