package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/hyperweather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of both the
// forecast record store and the report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location id, value: records by timestamp
	records map[string]map[int64]weather.Record
	// key: location id + date
	reports map[string]weather.Report

	// optional max age for records, measured against record timestamps
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore. A maxAge <= 0 keeps records
// forever.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[int64]weather.Record),
		reports: make(map[string]weather.Report),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// UpsertRecords stores records keyed by (location, timestamp), replacing
// any record with the same key, and enforces retention.
func (s *MemoryStore) UpsertRecords(_ context.Context, records []weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, r := range records {
		series, ok := s.records[r.Location]
		if !ok {
			series = make(map[int64]weather.Record)
			s.records[r.Location] = series
		}
		series[r.Timestamp] = r
		touched[r.Location] = true
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).Unix()
		for loc := range touched {
			for ts := range s.records[loc] {
				if ts < cutoff {
					delete(s.records[loc], ts)
				}
			}
		}
	}

	return nil
}

// Records returns the records of a location between from and to
// (inclusive, zero bounds open), ordered by timestamp.
func (s *MemoryStore) Records(_ context.Context, location string, from, to time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo, hi := unixBounds(from, to)

	result := []weather.Record{}
	for ts, r := range s.records[location] {
		if ts >= lo && ts <= hi {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// GetReport returns the report of a location for date.
func (s *MemoryStore) GetReport(_ context.Context, location, date string) (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[reportKey(location, date)]
	if !ok {
		return weather.Report{}, weather.ErrReportNotFound
	}
	return r, nil
}

// CreateReport stores r unless a report with the same key exists.
func (s *MemoryStore) CreateReport(_ context.Context, r weather.Report) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reportKey(r.Location, r.Date)
	if _, exists := s.reports[key]; exists {
		return false, nil
	}

	r.AudioURL = ""
	s.reports[key] = r
	return true, nil
}
