package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelvins/geocoder"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/hyperweather/internal/weather"
)

var ErrNoCoordinates = errors.New("city has no coordinates and no geocoder is configured")

type cityFile struct {
	Cities []city `yaml:"cities"`
}

type city struct {
	Name    string   `yaml:"name"`
	Country string   `yaml:"country"`
	Lat     *float64 `yaml:"lat,omitempty"`
	Lon     *float64 `yaml:"lon,omitempty"`
}

// geocode resolves a city to coordinates. Swapped in tests.
var geocode = func(apiKey, name, country string) (float64, float64, error) {
	geocoder.ApiKey = apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: name, Country: country})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

// LoadCities reads the supported city catalog from a YAML file.
func LoadCities(path, geocoderAPIKey string) ([]weather.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}
	return ParseCities(data, geocoderAPIKey)
}

// ParseCities decodes a city catalog. Cities without coordinates are
// geocoded once when an API key is given and rejected otherwise. Two
// entries mapping to the same location id are rejected too.
func ParseCities(data []byte, geocoderAPIKey string) ([]weather.Location, error) {
	var file cityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse cities file: %w", err)
	}

	locs := make([]weather.Location, 0, len(file.Cities))
	seen := make(map[string]bool, len(file.Cities))

	for i, c := range file.Cities {
		name, country := strings.TrimSpace(c.Name), strings.TrimSpace(c.Country)
		if name == "" || country == "" {
			return nil, fmt.Errorf("city #%d: name and country are required", i+1)
		}

		loc := weather.Location{Name: name, Country: country}
		switch {
		case c.Lat != nil && c.Lon != nil:
			loc.Lat, loc.Lon = *c.Lat, *c.Lon
		case geocoderAPIKey == "":
			return nil, fmt.Errorf("%s, %s: %w", name, country, ErrNoCoordinates)
		default:
			lat, lon, err := geocode(geocoderAPIKey, name, country)
			if err != nil {
				return nil, fmt.Errorf("geocode %s, %s: %w", name, country, err)
			}
			loc.Lat, loc.Lon = lat, lon
		}

		key := loc.Key()
		if seen[key] {
			return nil, fmt.Errorf("duplicate city %q", key)
		}
		seen[key] = true
		locs = append(locs, loc)
	}

	return locs, nil
}
