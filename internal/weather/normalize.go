package weather

import (
	"fmt"
	"time"

	"github.com/i474232898/hyperweather/internal/common"
)

// NearTerm is the last known good near-term summary of a location within an
// ingestion batch.
type NearTerm struct {
	PrecipitationAmount float64
	SymbolCode          string
}

// nearTerm picks the near-term window by priority 1h, 6h, 12h.
func (in Instant) nearTerm() (NearTerm, bool) {
	for _, next := range []*NextHours{in.Data.Next1Hours, in.Data.Next6Hours, in.Data.Next12Hours} {
		if next != nil {
			return NearTerm{
				PrecipitationAmount: next.Details.PrecipitationAmount,
				SymbolCode:          next.Summary.SymbolCode,
			}, true
		}
	}
	return NearTerm{}, false
}

// NormalizeInstant converts a raw instant into a canonical record. last is
// the near-term state carried from the previous instant of the same batch
// (nil for the first one). The returned state is what the next instant
// should receive; on error it is last, unchanged.
func NormalizeInstant(location string, in Instant, last *NearTerm) (Record, *NearTerm, error) {
	ts, err := time.Parse(time.RFC3339, in.Time)
	if err != nil {
		return Record{}, last, fmt.Errorf("parse instant time %q: %w", in.Time, err)
	}

	near, ok := in.nearTerm()
	if !ok {
		if last == nil {
			return Record{}, last, fmt.Errorf("%s at %s: %w", location, in.Time, ErrNoNearTerm)
		}
		near = *last
	}

	d := in.Data.Instant.Details
	rec := Record{
		Location:              location,
		Timestamp:             ts.Unix(),
		AirTemperature:        common.Decimal(d.AirTemperature),
		AirPressureAtSeaLevel: common.Decimal(d.AirPressureAtSeaLevel),
		WindSpeed:             common.Decimal(d.WindSpeed),
		WindFromDirection:     common.Decimal(d.WindFromDirection),
		RelativeHumidity:      common.Decimal(d.RelativeHumidity),
		PrecipitationAmount:   common.Decimal(near.PrecipitationAmount),
		SymbolCode:            near.SymbolCode,
	}
	if d.CloudAreaFraction != nil {
		cloud := common.Decimal(*d.CloudAreaFraction)
		rec.CloudAreaFraction = &cloud
	}

	return rec, &near, nil
}

// ItemError ties a normalization failure to the offending instant.
type ItemError struct {
	Time string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("instant %s: %v", e.Time, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NormalizeSeries normalizes instants in arrival order, threading the
// forward-fill state through. Failing instants are reported and skipped.
func NormalizeSeries(location string, series []Instant) ([]Record, []error) {
	var (
		records = make([]Record, 0, len(series))
		errs    []error
		last    *NearTerm
	)

	for _, in := range series {
		rec, next, err := NormalizeInstant(location, in, last)
		if err != nil {
			errs = append(errs, &ItemError{Time: in.Time, Err: err})
			continue
		}
		last = next
		records = append(records, rec)
	}

	return records, errs
}
