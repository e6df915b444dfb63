package repository

import (
	"context"
	"sync"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
)

// MemorySeriesStore keeps series in process; used when ClickHouse is disabled.
type MemorySeriesStore struct {
	mu sync.RWMutex
	m  map[string]models.TimeSeries
}

func NewMemorySeriesStore() *MemorySeriesStore {
	return &MemorySeriesStore{m: make(map[string]models.TimeSeries)}
}

func (s *MemorySeriesStore) Save(_ context.Context, code string, series models.TimeSeries) error {
	cp := make(models.TimeSeries, len(series))
	copy(cp, series)
	s.mu.Lock()
	s.m[code] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemorySeriesStore) Load(_ context.Context, code string) (models.TimeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.m[code]
	if !ok || len(series) == 0 {
		return nil, domrepo.ErrSeriesNotFound
	}
	return series, nil
}

func (s *MemorySeriesStore) Health(context.Context) error { return nil }
func (s *MemorySeriesStore) Close() error                 { return nil }

// NoopPublisher drops forecasts; used when Kafka is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, *models.ForecastResult) error { return nil }
func (NoopPublisher) Close() error                                          { return nil }

var (
	_ domrepo.SeriesStore       = (*MemorySeriesStore)(nil)
	_ domrepo.ForecastPublisher = NoopPublisher{}
)
