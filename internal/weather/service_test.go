package weather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hyperweather/pkg/logger"
)

var (
	osloLoc   = Location{Name: "Oslo", Country: "Norway", Lat: 59.91, Lon: 10.75}
	bergenLoc = Location{Name: "Bergen", Country: "Norway", Lat: 60.39, Lon: 5.32}
)

// rawSeries builds n hourly instants starting at start. Only every third
// instant carries a near-term window, the rest rely on forward-fill.
func rawSeries(start time.Time, n int) []Instant {
	series := make([]Instant, n)
	for i := range series {
		in := instantAt(start.Add(time.Duration(i)*time.Hour).Format(time.RFC3339), float64(i))
		if i%3 == 0 {
			in.Data.Next1Hours = next(float64(i)/10, fmt.Sprintf("symbol_%d", i))
		}
		series[i] = in
	}
	return series
}

func TestLocation_Key(t *testing.T) {
	assert.Equal(t, "oslo_norway", osloLoc.Key())
	assert.Equal(t, "new_york_united_states", Location{Name: "New York", Country: "United States"}.Key())
	assert.Equal(t, "oslo_norway", CanonicalID("Oslo, Norway"))
	assert.Equal(t, CanonicalID("oslo norway"), CanonicalID(" Oslo Norway "))
}

func TestService_IngestAll(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := newFakeStore()
	prov := &fakeProvider{series: map[string][]Instant{
		"oslo_norway":   rawSeries(start, 24),
		"bergen_norway": rawSeries(start, 12),
	}}
	svc := NewService(st, prov, []Location{osloLoc, bergenLoc}, logger.Nop())

	summary, err := svc.IngestAll(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Locations)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 36, summary.Stored)
	assert.Equal(t, 24, st.count("oslo_norway"))
	assert.Equal(t, 12, st.count("bergen_norway"))

	records, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Time{})
	require.NoError(t, err)
	// instants 1 and 2 inherit the near-term values of instant 0
	assert.Equal(t, "symbol_0", records[1].SymbolCode)
	assert.Equal(t, "symbol_0", records[2].SymbolCode)
	assert.Equal(t, "symbol_3", records[3].SymbolCode)
	assert.InDelta(t, 0.3, records[4].PrecipitationAmount.Float(), 1e-9)
}

func TestService_IngestAllIsIdempotent(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := newFakeStore()
	prov := &fakeProvider{series: map[string][]Instant{"oslo_norway": rawSeries(start, 6)}}
	svc := NewService(st, prov, []Location{osloLoc}, logger.Nop())

	_, err := svc.IngestAll(context.Background())
	require.NoError(t, err)
	once, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Time{})
	require.NoError(t, err)

	_, err = svc.IngestAll(context.Background())
	require.NoError(t, err)
	twice, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Len(t, twice, 6)
}

func TestService_IngestAllIsolatesFailingLocation(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := newFakeStore()
	prov := &fakeProvider{
		series: map[string][]Instant{"bergen_norway": rawSeries(start, 6)},
		errs:   map[string]error{"oslo_norway": errBoom},
	}
	svc := NewService(st, prov, []Location{osloLoc, bergenLoc}, logger.Nop())

	summary, err := svc.IngestAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "oslo_norway")

	assert.Equal(t, 2, prov.calls)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 6, summary.Stored)
	assert.Equal(t, 6, st.count("bergen_norway"))
	assert.Equal(t, 0, st.count("oslo_norway"))
}

func TestService_IngestRejectsFirstInstantWithoutNearTerm(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	series := rawSeries(start, 6)
	series[0].Data.Next1Hours = nil

	st := newFakeStore()
	svc := NewService(st, &fakeProvider{series: map[string][]Instant{"oslo_norway": series}}, []Location{osloLoc}, logger.Nop())

	stored, rejected, err := svc.FetchAndStore(context.Background(), osloLoc)
	require.NoError(t, err)

	// instants 1 and 2 have nothing to inherit from either
	assert.Equal(t, 3, rejected)
	assert.Equal(t, 3, stored)
	assert.Equal(t, 3, st.count("oslo_norway"))
}

func TestService_IngestStoreFailure(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.err = errBoom
	svc := NewService(st, &fakeProvider{series: map[string][]Instant{"oslo_norway": rawSeries(start, 3)}}, []Location{osloLoc}, logger.Nop())

	summary, err := svc.IngestAll(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, summary.Failed)
}

func TestService_IngestWithoutProvider(t *testing.T) {
	svc := NewService(newFakeStore(), nil, []Location{osloLoc}, logger.Nop())

	_, _, err := svc.FetchAndStore(context.Background(), osloLoc)
	assert.Error(t, err)
}

func seed(t *testing.T, st *fakeStore, location string, timestamps ...int64) {
	t.Helper()
	records := make([]Record, len(timestamps))
	for i, ts := range timestamps {
		records[i] = Record{Location: location, Timestamp: ts, SymbolCode: "clearsky_day"}
	}
	require.NoError(t, st.UpsertRecords(context.Background(), records))
}

func timestamps(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out
}

func TestService_ForecastSince(t *testing.T) {
	st := newFakeStore()
	seed(t, st, "oslo_norway", 300, 100, 200)
	svc := NewService(st, nil, nil, logger.Nop())

	all, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, timestamps(all))

	later, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Unix(250, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, timestamps(later))

	exact, err := svc.ForecastSince(context.Background(), "oslo_norway", time.Unix(200, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{200, 300}, timestamps(exact))
}

func TestService_ForecastFromNow(t *testing.T) {
	st := newFakeStore()
	seed(t, st, "oslo_norway", 100, 200, 300)
	svc := NewService(st, nil, nil, logger.Nop())
	svc.now = func() time.Time { return time.Unix(250, 0) }

	upcoming, err := svc.Forecast(context.Background(), "oslo_norway", true)
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, timestamps(upcoming))

	all, err := svc.Forecast(context.Background(), "oslo_norway", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_ForecastUnknownLocation(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, logger.Nop())

	records, err := svc.Forecast(context.Background(), "atlantis_nowhere", false)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestService_ForecastStoreError(t *testing.T) {
	st := newFakeStore()
	st.err = errBoom
	svc := NewService(st, nil, nil, logger.Nop())

	_, err := svc.Forecast(context.Background(), "oslo_norway", false)
	assert.ErrorIs(t, err, errBoom)
}

func TestService_Day(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := newFakeStore()
	seed(t, st, "oslo_norway",
		day.Add(-time.Hour).Unix(),
		day.Unix(),
		day.Add(23*time.Hour).Unix(),
		day.Add(24*time.Hour).Unix(),
	)
	svc := NewService(st, nil, nil, logger.Nop())

	records, err := svc.Day(context.Background(), "oslo_norway", day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{day.Unix(), day.Add(23 * time.Hour).Unix()}, timestamps(records))
}
