package weather

import (
	"strings"
	"time"

	"github.com/i474232898/hyperweather/internal/common"
)

// Location represents a supported place for which we ingest forecasts.
type Location struct {
	Name    string  `json:"name" yaml:"name"`
	Country string  `json:"country" yaml:"country"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lon     float64 `json:"lon" yaml:"lon"`
}

// Key returns the canonical location identifier used as partition key in
// every store, e.g. "oslo_norway".
func (l Location) Key() string {
	return CanonicalID(l.Name + " " + l.Country)
}

// CanonicalID normalizes a human readable place ("Oslo, Norway", "Oslo Norway")
// into its location identifier: spaces become underscores, commas are
// stripped and the result is lowercased. Ingestion and every boundary query
// go through this single function.
func CanonicalID(place string) string {
	id := strings.ReplaceAll(strings.TrimSpace(place), " ", "_")
	id = strings.ReplaceAll(id, ",", "")
	return strings.ToLower(id)
}

// Record is the canonical per-instant forecast entry for a location.
// PrecipitationAmount and SymbolCode are always populated.
type Record struct {
	Location              string          `json:"location"`
	Timestamp             int64           `json:"timestamp"` // epoch seconds, UTC
	AirTemperature        common.Decimal  `json:"air_temperature"`
	AirPressureAtSeaLevel common.Decimal  `json:"air_pressure_at_sea_level"`
	WindSpeed             common.Decimal  `json:"wind_speed"`
	WindFromDirection     common.Decimal  `json:"wind_from_direction"`
	RelativeHumidity      common.Decimal  `json:"relative_humidity"`
	CloudAreaFraction     *common.Decimal `json:"cloud_area_fraction,omitempty"`
	PrecipitationAmount   common.Decimal  `json:"precipitation_amount"`
	SymbolCode            string          `json:"symbol_code"`
}

// Time returns the record instant as UTC time.
func (r Record) Time() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

// Report is the generated daily narrative for a location. AudioURL is
// attached at read time and never persisted.
type Report struct {
	Location string `json:"location"`
	Date     string `json:"date"` // YYYY-MM-DD
	Report   string `json:"report"`
	AudioURL string `json:"report_tts_url,omitempty"`
}

// DateLayout is the calendar date format used for report keys.
const DateLayout = "2006-01-02"

// AudioKey is the object key of the synthesized audio of a report.
func AudioKey(location, date string) string {
	return date + "/" + location + ".mp3"
}
