package weather

import "errors"

var (
	// ErrNoNearTerm is returned for an instant without a near-term window
	// when there is no earlier value to forward-fill from.
	ErrNoNearTerm = errors.New("instant has no near-term forecast and nothing to forward-fill")

	// ErrNoRecords is returned when a day has no records to aggregate.
	ErrNoRecords = errors.New("no records to aggregate")

	// ErrEmptyWindow is returned when a day window holds no records.
	ErrEmptyWindow = errors.New("day window has no records")

	// ErrPartialWindow is returned when the last window of a day is short.
	ErrPartialWindow = errors.New("day window is incomplete")

	// ErrNonFinite is returned when a window holds a NaN or infinite metric.
	ErrNonFinite = errors.New("day window has a non-finite metric")

	// ErrReportNotFound is returned when no report exists for a key.
	ErrReportNotFound = errors.New("no report for location and date")
)
