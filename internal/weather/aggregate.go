package weather

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/i474232898/hyperweather/internal/common"
)

// DefaultWindowSize is the number of hourly records making up a day window.
const DefaultWindowSize = 6

// DefaultWindowLabels are the four fixed clock intervals of a day.
var DefaultWindowLabels = []string{"00:00 to 06:00", "06:00 to 12:00", "12:00 to 18:00", "18:00 to 23:59"}

const promptLead = "Generate a short weather report for the next 24 hours. "

// Range is a closed min/max interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Zero reports whether both bounds are exactly zero.
func (r Range) Zero() bool {
	return r.Min == 0 && r.Max == 0
}

func rangeOf(values []float64) Range {
	return Range{Min: floats.Min(values), Max: floats.Max(values)}
}

// WindowSummary holds the statistics of one day window.
type WindowSummary struct {
	Label         string
	Temperature   Range
	Pressure      Range
	WindSpeed     Range
	Humidity      Range
	Precipitation Range
	// Directions are the distinct compass buckets, in first-seen order.
	Directions []string
	// Cloud is nil when no record of the window carries cloud cover.
	Cloud *Range
}

// Summarize computes the statistics of a window. An empty window has no
// meaningful min/max and yields ErrEmptyWindow.
func Summarize(label string, records []Record) (WindowSummary, error) {
	if len(records) == 0 {
		return WindowSummary{}, fmt.Errorf("window %s: %w", label, ErrEmptyWindow)
	}

	n := len(records)
	var (
		temp     = make([]float64, 0, n)
		pressure = make([]float64, 0, n)
		wind     = make([]float64, 0, n)
		humidity = make([]float64, 0, n)
		precip   = make([]float64, 0, n)
		cloud    []float64
		seen     = make(map[string]bool, len(compassBuckets))
		dirs     []string
	)

	for _, r := range records {
		if err := r.checkFinite(); err != nil {
			return WindowSummary{}, fmt.Errorf("window %s: %w", label, err)
		}

		temp = append(temp, r.AirTemperature.Float())
		pressure = append(pressure, r.AirPressureAtSeaLevel.Float())
		wind = append(wind, r.WindSpeed.Float())
		humidity = append(humidity, r.RelativeHumidity.Float())
		precip = append(precip, r.PrecipitationAmount.Float())
		if r.CloudAreaFraction != nil {
			cloud = append(cloud, r.CloudAreaFraction.Float())
		}

		dir := CompassDirection(r.WindFromDirection.Float())
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	s := WindowSummary{
		Label:         label,
		Temperature:   rangeOf(temp),
		Pressure:      rangeOf(pressure),
		WindSpeed:     rangeOf(wind),
		Humidity:      rangeOf(humidity),
		Precipitation: rangeOf(precip),
		Directions:    dirs,
	}
	if len(cloud) > 0 {
		c := rangeOf(cloud)
		s.Cloud = &c
	}

	return s, nil
}

// checkFinite rejects records whose metrics would render as bogus ranges.
func (r Record) checkFinite() error {
	values := map[string]common.Decimal{
		"air_temperature":           r.AirTemperature,
		"air_pressure_at_sea_level": r.AirPressureAtSeaLevel,
		"wind_speed":                r.WindSpeed,
		"wind_from_direction":       r.WindFromDirection,
		"relative_humidity":         r.RelativeHumidity,
		"precipitation_amount":      r.PrecipitationAmount,
	}
	if r.CloudAreaFraction != nil {
		values["cloud_area_fraction"] = *r.CloudAreaFraction
	}

	for name, v := range values {
		if !v.Finite() {
			return fmt.Errorf("%s at %d is %s: %w", name, r.Timestamp, v, ErrNonFinite)
		}
	}
	return nil
}

func between(r Range) string {
	return "between " + common.FormatDecimal(r.Min) + " and " + common.FormatDecimal(r.Max)
}

// Sentence renders the window as one prompt sentence group.
func (s WindowSummary) Sentence() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conditions from %s will be %s degrees Celsius, ", s.Label, between(s.Temperature))
	fmt.Fprintf(&b, "with an air pressure %s hectopascals, ", between(s.Pressure))
	fmt.Fprintf(&b, "a wind speed %s meters per second, ", between(s.WindSpeed))
	fmt.Fprintf(&b, "and a relative humidity %s percent. ", between(s.Humidity))

	if s.Precipitation.Zero() {
		b.WriteString("There will be no precipitation. ")
	} else {
		fmt.Fprintf(&b, "Rainfall will be %s millimeters. ", between(s.Precipitation))
	}

	if len(s.Directions) == 1 {
		fmt.Fprintf(&b, "The wind will be coming from the %s. ", s.Directions[0])
	} else {
		fmt.Fprintf(&b, "The wind will be coming from the %s directions. ", strings.Join(s.Directions, ", "))
	}

	switch {
	case s.Cloud == nil:
	case s.Cloud.Zero():
		b.WriteString("There will be no cloud cover. ")
	default:
		fmt.Fprintf(&b, "Cloud cover will be %s percent. ", between(*s.Cloud))
	}

	return b.String()
}

// Partitioner splits an ordered day of records into fixed-size windows
// zipped with a label table. Partitioning is ordinal: records must already
// be sorted by timestamp.
type Partitioner struct {
	Size   int
	Labels []string
}

// DefaultPartitioner uses six records per window and the four day labels.
func DefaultPartitioner() Partitioner {
	return Partitioner{Size: DefaultWindowSize, Labels: DefaultWindowLabels}
}

// Summaries partitions records and summarizes every labelled window. Groups
// past the last label are dropped; a short trailing group fails with
// ErrPartialWindow.
func (p Partitioner) Summaries(records []Record) ([]WindowSummary, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("invalid window size %d", p.Size)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	var out []WindowSummary
	for i, label := range p.Labels {
		start := i * p.Size
		if start >= len(records) {
			break
		}
		end := min(start+p.Size, len(records))
		if end-start < p.Size {
			return nil, fmt.Errorf("window %s has %d of %d records: %w", label, end-start, p.Size, ErrPartialWindow)
		}

		s, err := Summarize(label, records[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, nil
}

// Prompt composes the narrative request for a day of records.
func (p Partitioner) Prompt(records []Record) (string, error) {
	summaries, err := p.Summaries(records)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(promptLead)
	for _, s := range summaries {
		b.WriteString(s.Sentence())
	}
	return b.String(), nil
}
