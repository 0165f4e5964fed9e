package weather

import (
	"context"
	"io"
	"time"
)

// Instant is one raw entry of a provider time series, shaped after the
// met.no Locationforecast timeseries item.
type Instant struct {
	Time string `json:"time"`
	Data struct {
		Instant struct {
			Details InstantDetails `json:"details"`
		} `json:"instant"`
		Next1Hours  *NextHours `json:"next_1_hours,omitempty"`
		Next6Hours  *NextHours `json:"next_6_hours,omitempty"`
		Next12Hours *NextHours `json:"next_12_hours,omitempty"`
	} `json:"data"`
}

// InstantDetails carries the instantaneous metrics of an Instant.
type InstantDetails struct {
	AirPressureAtSeaLevel float64  `json:"air_pressure_at_sea_level"`
	AirTemperature        float64  `json:"air_temperature"`
	CloudAreaFraction     *float64 `json:"cloud_area_fraction,omitempty"`
	RelativeHumidity      float64  `json:"relative_humidity"`
	WindFromDirection     float64  `json:"wind_from_direction"`
	WindSpeed             float64  `json:"wind_speed"`
}

// NextHours is a near-term forecast window of an Instant.
type NextHours struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount float64 `json:"precipitation_amount"`
	} `json:"details"`
}

// Provider abstracts a forecast source (e.g. met.no).
type Provider interface {
	Name() string
	FetchSeries(ctx context.Context, loc Location) ([]Instant, error)
}

// Store is the time-series store keyed by (location, timestamp).
type Store interface {
	// UpsertRecords writes records idempotently by (location, timestamp).
	UpsertRecords(ctx context.Context, records []Record) error
	// Records returns the records of a location ordered by timestamp
	// ascending, bounded inclusively by from and to. A zero bound is open.
	// Unknown locations yield an empty slice and no error.
	Records(ctx context.Context, location string, from, to time.Time) ([]Record, error)
}

// ReportStore keeps at most one Report per (location, date).
type ReportStore interface {
	// GetReport returns ErrReportNotFound when no report exists.
	GetReport(ctx context.Context, location, date string) (Report, error)
	// CreateReport stores r unless a report for its key exists already.
	// It reports whether r was stored.
	CreateReport(ctx context.Context, r Report) (bool, error)
}

// Narrator turns a prompt into generated text.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer renders text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists report audio and hands out time-limited read URLs.
type AudioStore interface {
	Put(ctx context.Context, key string, audio io.Reader) error
	SignedURL(ctx context.Context, key string) (string, error)
}
