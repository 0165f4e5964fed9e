package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/hyperweather/internal/weather"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type AppConfig struct {
	AppName     string        `envconfig:"APP_NAME" default:"hyperweather"`
	Port        string        `envconfig:"PORT" default:"8080"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	// IngestInterval controls how often the forecast of every city is fetched.
	IngestInterval time.Duration `envconfig:"INGEST_INTERVAL" default:"1h"`
	// ReportAt is the daily HH:MM at which the report pass runs.
	ReportAt string `envconfig:"REPORT_AT" default:"05:00"`
	// Timezone is used for "today" and day bounds.
	Timezone   string `envconfig:"TIMEZONE" default:"UTC"`
	WindowSize int    `envconfig:"WINDOW_SIZE" default:"6"`

	StoreBackend string        `envconfig:"STORE_BACKEND" default:"memory"`
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	PostgresDSN  string        `envconfig:"POSTGRES_DSN"`
	StoreMaxAge  time.Duration `envconfig:"STORE_MAX_AGE" default:"72h"` // memory backend only, 0 = unlimited

	MetNoBaseURL   string `envconfig:"METNO_BASE_URL" default:"https://api.met.no/weatherapi/locationforecast/2.0/compact"`
	MetNoUserAgent string `envconfig:"METNO_USER_AGENT"`

	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	OpenAIModel       string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAISpeechModel string `envconfig:"OPENAI_SPEECH_MODEL" default:"tts-1"`
	OpenAISpeechVoice string `envconfig:"OPENAI_SPEECH_VOICE" default:"alloy"`

	AudioBucket string        `envconfig:"AUDIO_BUCKET"`
	AudioURLTTL time.Duration `envconfig:"AUDIO_URL_TTL" default:"1h"`

	CitiesFile     string `envconfig:"CITIES_FILE" default:"config/supported_cities.yaml"`
	GeocoderAPIKey string `envconfig:"GEOCODER_API_KEY"`

	// Locations is the supported city catalog, loaded from CitiesFile.
	Locations []weather.Location `ignored:"true"`
}

// Load reads configuration from the environment (and an optional .env file)
// and loads the supported city catalog.
func Load() (*AppConfig, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	locs, err := LoadCities(cfg.CitiesFile, cfg.GeocoderAPIKey)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// Validate checks the settings envconfig cannot check on its own.
func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.WindowSize <= 0 {
		return fmt.Errorf("invalid WINDOW_SIZE %d", c.WindowSize)
	}
	if c.IngestInterval < time.Minute {
		return fmt.Errorf("INGEST_INTERVAL must be at least 1m, got %s", c.IngestInterval)
	}
	if _, err := time.Parse("15:04", c.ReportAt); err != nil {
		return fmt.Errorf("invalid REPORT_AT %q: %w", c.ReportAt, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	tz, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return tz, nil
}

// Partitioner returns the day partitioning configured by WINDOW_SIZE.
func (c *AppConfig) Partitioner() weather.Partitioner {
	p := weather.DefaultPartitioner()
	p.Size = c.WindowSize
	return p
}
