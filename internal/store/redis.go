package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/hyperweather/internal/weather"
)

// RedisStore keeps each location's series as a sorted set of timestamps
// (the range index) next to a hash of timestamp -> record JSON. Reports
// are plain keys written with SETNX.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "hyperweather"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL connects to redisURL and pings it.
func NewRedisStoreFromURL(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) indexKey(location string) string {
	return s.prefix + ":forecast:" + location + ":index"
}

func (s *RedisStore) dataKey(location string) string {
	return s.prefix + ":forecast:" + location + ":data"
}

func (s *RedisStore) reportKey(location, date string) string {
	return s.prefix + ":report:" + location + ":" + date
}

// UpsertRecords writes all records in one MULTI/EXEC transaction.
func (s *RedisStore) UpsertRecords(ctx context.Context, records []weather.Record) error {
	if len(records) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			payload, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode record %s@%d: %w", r.Location, r.Timestamp, err)
			}

			member := strconv.FormatInt(r.Timestamp, 10)
			pipe.ZAdd(ctx, s.indexKey(r.Location), redis.Z{Score: float64(r.Timestamp), Member: member})
			pipe.HSet(ctx, s.dataKey(r.Location), member, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}

// Records range-scans the sorted index and loads the matching records.
func (s *RedisStore) Records(ctx context.Context, location string, from, to time.Time) ([]weather.Record, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !from.IsZero() {
		rng.Min = strconv.FormatInt(from.Unix(), 10)
	}
	if !to.IsZero() {
		rng.Max = strconv.FormatInt(to.Unix(), 10)
	}

	members, err := s.client.ZRangeByScore(ctx, s.indexKey(location), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range scan: %w", err)
	}

	result := make([]weather.Record, 0, len(members))
	if len(members) == 0 {
		return result, nil
	}

	values, err := s.client.HMGet(ctx, s.dataKey(location), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load records: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without data, skip
			continue
		}

		var r weather.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode record %s@%s: %w", location, members[i], err)
		}
		result = append(result, r)
	}

	return result, nil
}

// GetReport returns the report stored for (location, date).
func (s *RedisStore) GetReport(ctx context.Context, location, date string) (weather.Report, error) {
	raw, err := s.client.Get(ctx, s.reportKey(location, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return weather.Report{}, weather.ErrReportNotFound
	}
	if err != nil {
		return weather.Report{}, fmt.Errorf("redis get report: %w", err)
	}

	var r weather.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return weather.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// CreateReport stores r with SETNX, never overwriting.
func (s *RedisStore) CreateReport(ctx context.Context, r weather.Report) (bool, error) {
	r.AudioURL = ""
	payload, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("encode report: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.reportKey(r.Location, r.Date), payload, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis create report: %w", err)
	}
	return created, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
