// Command provision applies the PostgreSQL schema. It is run once per
// deployment, before the service starts.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/i474232898/hyperweather/internal/store"
	"github.com/i474232898/hyperweather/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	l := logger.New("hyperweather-provision", zapcore.InfoLevel, os.Stdout)
	defer func() { _ = l.Stop() }()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		l.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.OpenPostgres(ctx, dsn)
	if err != nil {
		l.Fatal("cannot connect to postgres", map[string]any{"err": err.Error()})
	}
	defer db.Close()

	version, err := store.Migrate(db)
	if err != nil {
		l.Fatal("migration failed", map[string]any{"err": err.Error()})
	}

	l.Info("schema is up to date", map[string]any{"version": version})
}
