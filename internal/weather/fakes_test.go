package weather

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]map[int64]Record
	reports map[string]Report
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]map[int64]Record),
		reports: make(map[string]Report),
	}
}

func (s *fakeStore) UpsertRecords(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, r := range records {
		if s.records[r.Location] == nil {
			s.records[r.Location] = make(map[int64]Record)
		}
		s.records[r.Location][r.Timestamp] = r
	}
	return nil
}

func (s *fakeStore) Records(_ context.Context, location string, from, to time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []Record
	for ts, r := range s.records[location] {
		if !from.IsZero() && ts < from.Unix() {
			continue
		}
		if !to.IsZero() && ts > to.Unix() {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *fakeStore) count(location string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[location])
}

func (s *fakeStore) GetReport(_ context.Context, location, date string) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[location+"|"+date]
	if !ok {
		return Report{}, ErrReportNotFound
	}
	return r, nil
}

func (s *fakeStore) CreateReport(_ context.Context, r Report) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := r.Location + "|" + r.Date
	if _, ok := s.reports[key]; ok {
		return false, nil
	}
	s.reports[key] = r
	return true, nil
}

type fakeProvider struct {
	series map[string][]Instant
	errs   map[string]error
	calls  int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchSeries(_ context.Context, loc Location) ([]Instant, error) {
	p.calls++
	if err := p.errs[loc.Key()]; err != nil {
		return nil, err
	}
	return p.series[loc.Key()], nil
}

type fakeNarrator struct {
	prompts []string
	err     error
}

func (n *fakeNarrator) Narrate(_ context.Context, prompt string) (string, error) {
	n.prompts = append(n.prompts, prompt)
	if n.err != nil {
		return "", n.err
	}
	return "Mild and dry all day.", nil
}

type fakeSynth struct {
	texts []string
	err   error
}

func (s *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("ID3" + text), nil
}

type fakeAudio struct {
	objects map[string][]byte
	signErr error
}

func (a *fakeAudio) Put(_ context.Context, key string, audio io.Reader) error {
	data, err := io.ReadAll(audio)
	if err != nil {
		return err
	}
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	a.objects[key] = data
	return nil
}

func (a *fakeAudio) SignedURL(_ context.Context, key string) (string, error) {
	if a.signErr != nil {
		return "", a.signErr
	}
	return "https://storage.example.com/" + key + "?sig=abc", nil
}

var errBoom = errors.New("boom")
