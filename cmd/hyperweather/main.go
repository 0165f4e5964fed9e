package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/i474232898/hyperweather/internal/api/http"
	"github.com/i474232898/hyperweather/internal/audio"
	"github.com/i474232898/hyperweather/internal/config"
	"github.com/i474232898/hyperweather/internal/scheduler"
	"github.com/i474232898/hyperweather/internal/store"
	"github.com/i474232898/hyperweather/internal/weather"
	"github.com/i474232898/hyperweather/internal/weather/providers"
	"github.com/i474232898/hyperweather/pkg/logger"
)

// backend is what every store implementation offers.
type backend interface {
	weather.Store
	weather.ReportStore
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	l := logger.New(cfg.AppName, level, os.Stdout)
	defer func() { _ = l.Stop() }()

	tz, err := cfg.Location()
	if err != nil {
		l.Fatal("invalid timezone", map[string]any{"err": err.Error()})
	}

	db, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		l.Fatal("cannot open store", map[string]any{"backend": cfg.StoreBackend, "err": err.Error()})
	}
	defer func() { _ = closeStore() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewMetNoProvider(httpClient, cfg.MetNoBaseURL, cfg.MetNoUserAgent)

	openai := providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		SpeechModel: cfg.OpenAISpeechModel,
		SpeechVoice: cfg.OpenAISpeechVoice,
	})

	service := weather.NewService(db, provider, cfg.Locations, l)

	opts := []weather.ReporterOption{
		weather.WithPartitioner(cfg.Partitioner()),
		weather.WithTimezone(tz),
	}
	if cfg.AudioBucket != "" {
		gcs, err := storage.NewClient(ctx)
		if err != nil {
			l.Fatal("cannot create storage client", map[string]any{"err": err.Error()})
		}
		defer gcs.Close()

		audioStore, err := audio.NewGCSStore(gcs, cfg.AudioBucket, cfg.AudioURLTTL)
		if err != nil {
			l.Fatal("cannot create audio store", map[string]any{"err": err.Error()})
		}
		opts = append(opts, weather.WithAudio(openai, audioStore))
	} else {
		l.Warning("AUDIO_BUCKET not set, reports will not be voiced")
	}
	reporter := weather.NewReporter(service, db, openai, l, opts...)

	sched := scheduler.New(service, reporter, cfg.IngestInterval, cfg.ReportAt, tz, l)
	if err := sched.Start(); err != nil {
		l.Fatal("failed to start scheduler", map[string]any{"err": err.Error()})
	}
	defer sched.Stop()

	app := httpapi.NewApp(cfg.AppName)
	httpapi.RegisterRoutes(app, service, reporter, cfg.Locations)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err.Error()})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":      cfg.Port,
		"backend":   cfg.StoreBackend,
		"locations": len(cfg.Locations),
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	l.Warning("stopping application services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Error(fmt.Errorf("shutdown: %w", err))
	}
}

func openStore(ctx context.Context, cfg *config.AppConfig) (backend, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		s, err := store.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		db, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewPostgresStore(db)
		return s, s.Close, nil
	default:
		return store.NewMemoryStore(cfg.StoreMaxAge), func() error { return nil }, nil
	}
}
