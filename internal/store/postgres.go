package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/i474232898/hyperweather/internal/common"
	"github.com/i474232898/hyperweather/internal/weather"
)

const (
	upsertRecordSQL = `
		INSERT INTO forecast_records (
			location, ts, air_temperature, air_pressure_at_sea_level, wind_speed,
			wind_from_direction, relative_humidity, cloud_area_fraction,
			precipitation_amount, symbol_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (location, ts) DO UPDATE SET
			air_temperature = EXCLUDED.air_temperature,
			air_pressure_at_sea_level = EXCLUDED.air_pressure_at_sea_level,
			wind_speed = EXCLUDED.wind_speed,
			wind_from_direction = EXCLUDED.wind_from_direction,
			relative_humidity = EXCLUDED.relative_humidity,
			cloud_area_fraction = EXCLUDED.cloud_area_fraction,
			precipitation_amount = EXCLUDED.precipitation_amount,
			symbol_code = EXCLUDED.symbol_code`

	selectRecordsSQL = `
		SELECT location, ts, air_temperature, air_pressure_at_sea_level, wind_speed,
			wind_from_direction, relative_humidity, cloud_area_fraction,
			precipitation_amount, symbol_code
		FROM forecast_records
		WHERE location = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`

	selectReportSQL = `SELECT location, report_date, report FROM daily_reports WHERE location = $1 AND report_date = $2`

	insertReportSQL = `
		INSERT INTO daily_reports (location, report_date, report) VALUES ($1, $2, $3)
		ON CONFLICT (location, report_date) DO NOTHING`
)

// PostgresStore implements the record and report stores on PostgreSQL.
// The schema is provisioned by Migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens and pings a pgx-backed database/sql handle.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// UpsertRecords writes the batch in a single transaction.
func (s *PostgresStore) UpsertRecords(ctx context.Context, records []weather.Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		var cloud sql.NullFloat64
		if r.CloudAreaFraction != nil {
			cloud = sql.NullFloat64{Float64: r.CloudAreaFraction.Float(), Valid: true}
		}

		if _, err = tx.ExecContext(ctx, upsertRecordSQL,
			r.Location, r.Timestamp,
			r.AirTemperature.Float(), r.AirPressureAtSeaLevel.Float(), r.WindSpeed.Float(),
			r.WindFromDirection.Float(), r.RelativeHumidity.Float(), cloud,
			r.PrecipitationAmount.Float(), r.SymbolCode,
		); err != nil {
			return fmt.Errorf("upsert record %s@%d: %w", r.Location, r.Timestamp, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records returns the bounded, ordered series of a location.
func (s *PostgresStore) Records(ctx context.Context, location string, from, to time.Time) ([]weather.Record, error) {
	lo, hi := unixBounds(from, to)

	rows, err := s.db.QueryContext(ctx, selectRecordsSQL, location, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	result := []weather.Record{}
	for rows.Next() {
		var (
			r                                        weather.Record
			temp, pressure, wind, dir, humid, precip float64
			cloud                                    sql.NullFloat64
		)
		if err := rows.Scan(&r.Location, &r.Timestamp, &temp, &pressure, &wind, &dir, &humid, &cloud, &precip, &r.SymbolCode); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.AirTemperature = common.Decimal(temp)
		r.AirPressureAtSeaLevel = common.Decimal(pressure)
		r.WindSpeed = common.Decimal(wind)
		r.WindFromDirection = common.Decimal(dir)
		r.RelativeHumidity = common.Decimal(humid)
		r.PrecipitationAmount = common.Decimal(precip)
		if cloud.Valid {
			c := common.Decimal(cloud.Float64)
			r.CloudAreaFraction = &c
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return result, nil
}

// GetReport returns the report stored for (location, date).
func (s *PostgresStore) GetReport(ctx context.Context, location, date string) (weather.Report, error) {
	var r weather.Report
	err := s.db.QueryRowContext(ctx, selectReportSQL, location, date).Scan(&r.Location, &r.Date, &r.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Report{}, weather.ErrReportNotFound
	}
	if err != nil {
		return weather.Report{}, fmt.Errorf("query report: %w", err)
	}
	return r, nil
}

// CreateReport inserts r, leaving an existing row untouched.
func (s *PostgresStore) CreateReport(ctx context.Context, r weather.Report) (bool, error) {
	res, err := s.db.ExecContext(ctx, insertReportSQL, r.Location, r.Date, r.Report)
	if err != nil {
		return false, fmt.Errorf("insert report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert report: %w", err)
	}
	return n == 1, nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
