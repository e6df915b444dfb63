package repository

import (
	"context"
	"errors"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/pkg/cache"
	applogger "BrentCast/pkg/logger"
)

// CachedSeriesStore memoizes Load results of an underlying store.
type CachedSeriesStore struct {
	next  domrepo.SeriesStore
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedSeriesStore(next domrepo.SeriesStore, c cache.Service, ttl time.Duration) *CachedSeriesStore {
	return &CachedSeriesStore{next: next, cache: c, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *CachedSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func seriesKey(code string) string { return "series:" + code }

// Save writes through and refreshes the cached copy.
func (s *CachedSeriesStore) Save(ctx context.Context, code string, series models.TimeSeries) error {
	if err := s.next.Save(ctx, code, series); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, seriesKey(code), series, s.ttl); err != nil && s.l != nil {
		s.l.Warn("series cache set failed", applogger.String("code", code), applogger.Error(err))
	}
	return nil
}

func (s *CachedSeriesStore) Load(ctx context.Context, code string) (models.TimeSeries, error) {
	var series models.TimeSeries
	err := s.cache.Get(ctx, seriesKey(code), &series)
	if err == nil && len(series) > 0 {
		return series, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) && s.l != nil {
		s.l.Warn("series cache get failed", applogger.String("code", code), applogger.Error(err))
	}

	series, err = s.next.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, seriesKey(code), series, s.ttl); err != nil && s.l != nil {
		s.l.Warn("series cache set failed", applogger.String("code", code), applogger.Error(err))
	}
	return series, nil
}

// Invalidate drops the cached copy for code.
func (s *CachedSeriesStore) Invalidate(ctx context.Context, code string) error {
	return s.cache.Delete(ctx, seriesKey(code))
}

func (s *CachedSeriesStore) Health(ctx context.Context) error { return s.next.Health(ctx) }

// Close closes the underlying store; the cache is owned by the caller.
func (s *CachedSeriesStore) Close() error { return s.next.Close() }

var _ domrepo.SeriesStore = (*CachedSeriesStore)(nil)
