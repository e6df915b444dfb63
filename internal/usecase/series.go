package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/services/features"
	applogger "BrentCast/pkg/logger"
)

// DefaultEventYears is the lookback used for the market events overlay.
const DefaultEventYears = 6

// ErrSourceUnavailable wraps failures of the upstream series source.
var ErrSourceUnavailable = errors.New("series source unavailable")

// SeriesUseCase serves the stored price series and the statistics derived from it.
type SeriesUseCase struct {
	source  domsvc.SeriesSource
	store   domrepo.SeriesStore
	metrics domrepo.Metrics
	code    string
	l       *applogger.Logger

	refreshMu sync.Mutex
}

func NewSeriesUseCase(source domsvc.SeriesSource, store domrepo.SeriesStore, metrics domrepo.Metrics, code string, l *applogger.Logger) *SeriesUseCase {
	return &SeriesUseCase{source: source, store: store, metrics: metrics, code: code, l: l}
}

// Code is the upstream series code this use case serves.
func (uc *SeriesUseCase) Code() string { return uc.code }

// Series returns the stored series, fetching it from upstream on first use.
func (uc *SeriesUseCase) Series(ctx context.Context) (models.TimeSeries, error) {
	s, err := uc.store.Load(ctx, uc.code)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domrepo.ErrSeriesNotFound) {
		return nil, fmt.Errorf("load series: %w", err)
	}
	return uc.Refresh(ctx)
}

// RefreshResult summarizes one upstream refresh.
type RefreshResult struct {
	Code   string    `json:"code"`
	Points int       `json:"points"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
}

// Refresh fetches the series from upstream and replaces the stored copy.
// Concurrent callers are serialized.
func (uc *SeriesUseCase) Refresh(ctx context.Context) (models.TimeSeries, error) {
	uc.refreshMu.Lock()
	defer uc.refreshMu.Unlock()

	start := time.Now()
	s, err := uc.source.Fetch(ctx)
	if err != nil {
		uc.recordError("series_fetch")
		return nil, fmt.Errorf("fetch series: %w: %w", ErrSourceUnavailable, err)
	}
	if len(s) == 0 {
		uc.recordError("series_empty")
		return nil, fmt.Errorf("fetch series: %w", domrepo.ErrSeriesNotFound)
	}
	if err := s.Validate(); err != nil {
		uc.recordError("series_invalid")
		return nil, fmt.Errorf("validate series: %w", err)
	}
	if err := uc.store.Save(ctx, uc.code, s); err != nil {
		uc.recordError("series_save")
		return nil, fmt.Errorf("save series: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.RecordSeriesPoints(uc.code, len(s))
		uc.metrics.RecordLatency("series_refresh", time.Since(start).Seconds())
	}
	if uc.l != nil {
		uc.l.Info("series refreshed",
			applogger.String("code", uc.code),
			applogger.Int("points", len(s)),
			applogger.Duration("took", time.Since(start)))
	}
	return s, nil
}

// RefreshSummary runs Refresh and describes the outcome.
func (uc *SeriesUseCase) RefreshSummary(ctx context.Context) (*RefreshResult, error) {
	s, err := uc.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Code: uc.code, Points: len(s), First: s[0].Date, Last: s[len(s)-1].Date}, nil
}

// History returns the last years of the series. years <= 0 returns everything.
func (uc *SeriesUseCase) History(ctx context.Context, years int) (models.TimeSeries, error) {
	s, err := uc.Series(ctx)
	if err != nil {
		return nil, err
	}
	return s.LastYears(years), nil
}

// MovingAverages computes trailing means over the full series and keeps the
// points inside the last years.
func (uc *SeriesUseCase) MovingAverages(ctx context.Context, windows []int, years int) ([]models.MovingAverageSeries, error) {
	s, err := uc.Series(ctx)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		windows = features.DefaultWindows
	}
	out := features.MovingAverages(s, windows...)
	if years <= 0 {
		return out, nil
	}
	cutoff := s.LastYears(years)
	if len(cutoff) == 0 {
		return out, nil
	}
	from := cutoff[0].Date
	for i := range out {
		pts := out[i].Points
		j := 0
		for j < len(pts) && pts[j].Date.Before(from) {
			j++
		}
		out[i].Points = pts[j:]
	}
	return out, nil
}

// MonthlyChanges returns month-over-month percent changes of the monthly mean.
func (uc *SeriesUseCase) MonthlyChanges(ctx context.Context, years int) ([]models.MonthlyChange, error) {
	s, err := uc.Series(ctx)
	if err != nil {
		return nil, err
	}
	return features.LastMonths(features.MonthlyChange(s), years), nil
}

// Events returns the annotated market events inside the last years.
func (uc *SeriesUseCase) Events(ctx context.Context, years int) ([]models.MarketEvent, error) {
	if years <= 0 {
		years = DefaultEventYears
	}
	s, err := uc.Series(ctx)
	if err != nil {
		return nil, err
	}
	return features.MarketEvents(s.LastYears(years)), nil
}

func (uc *SeriesUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
