package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCities(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CITIES_FILE", writeCities(t, "cities:\n  - {name: Oslo, country: Norway, lat: 59.91, lon: 10.75}\n"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hyperweather", cfg.AppName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.IngestInterval)
	assert.Equal(t, "05:00", cfg.ReportAt)
	assert.Equal(t, 6, cfg.WindowSize)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, time.Hour, cfg.AudioURLTTL)
	require.Len(t, cfg.Locations, 1)
	assert.Equal(t, "oslo_norway", cfg.Locations[0].Key())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CITIES_FILE", writeCities(t, "cities: []\n"))
	t.Setenv("PORT", "9090")
	t.Setenv("WINDOW_SIZE", "3")
	t.Setenv("TIMEZONE", "Europe/Oslo")
	t.Setenv("INGEST_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.IngestInterval)
	assert.Equal(t, 3, cfg.Partitioner().Size)

	tz, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Oslo", tz.String())
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			StoreBackend:   BackendMemory,
			WindowSize:     6,
			IngestInterval: time.Hour,
			ReportAt:       "05:00",
			Timezone:       "UTC",
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(c *AppConfig){
		"unknown backend":       func(c *AppConfig) { c.StoreBackend = "dynamo" },
		"postgres without dsn":  func(c *AppConfig) { c.StoreBackend = BackendPostgres },
		"zero window size":      func(c *AppConfig) { c.WindowSize = 0 },
		"interval too short":    func(c *AppConfig) { c.IngestInterval = time.Second },
		"malformed report time": func(c *AppConfig) { c.ReportAt = "5am" },
		"unknown timezone":      func(c *AppConfig) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseCities(t *testing.T) {
	data := []byte(`
cities:
  - name: Oslo
    country: Norway
    lat: 59.9139
    lon: 10.7522
  - name: New York
    country: United States
    lat: 40.7128
    lon: -74.006
`)

	locs, err := ParseCities(data, "")
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.Equal(t, "oslo_norway", locs[0].Key())
	assert.Equal(t, "new_york_united_states", locs[1].Key())
	assert.InDelta(t, -74.006, locs[1].Lon, 1e-9)
}

func TestParseCities_MissingCoordinates(t *testing.T) {
	data := []byte("cities:\n  - {name: Oslo, country: Norway}\n")

	_, err := ParseCities(data, "")
	assert.ErrorIs(t, err, ErrNoCoordinates)
}

func TestParseCities_Geocodes(t *testing.T) {
	orig := geocode
	t.Cleanup(func() { geocode = orig })

	var calls int
	geocode = func(apiKey, name, country string) (float64, float64, error) {
		calls++
		assert.Equal(t, "key", apiKey)
		assert.Equal(t, "Oslo", name)
		assert.Equal(t, "Norway", country)
		return 59.9, 10.7, nil
	}

	locs, err := ParseCities([]byte("cities:\n  - {name: Oslo, country: Norway}\n"), "key")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 59.9, locs[0].Lat, 1e-9)
}

func TestParseCities_GeocoderFailure(t *testing.T) {
	orig := geocode
	t.Cleanup(func() { geocode = orig })
	geocode = func(string, string, string) (float64, float64, error) {
		return 0, 0, errors.New("quota exceeded")
	}

	_, err := ParseCities([]byte("cities:\n  - {name: Oslo, country: Norway}\n"), "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestParseCities_Duplicates(t *testing.T) {
	data := []byte(`
cities:
  - {name: Oslo, country: Norway, lat: 1, lon: 1}
  - {name: oslo, country: norway, lat: 1, lon: 1}
`)

	_, err := ParseCities(data, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oslo_norway")
}

func TestLoadCities_ShippedCatalog(t *testing.T) {
	locs, err := LoadCities(filepath.Join("..", "..", "config", "supported_cities.yaml"), "")
	require.NoError(t, err)
	assert.NotEmpty(t, locs)
}
