package repository

import (
	"context"
	"errors"

	"BrentCast/internal/domain/models"
)

// ErrSeriesNotFound is returned by Load when nothing is stored for a code.
var ErrSeriesNotFound = errors.New("series not found")

// SeriesStore persists the daily price series by series code.
type SeriesStore interface {
	Save(ctx context.Context, code string, s models.TimeSeries) error
	Load(ctx context.Context, code string) (models.TimeSeries, error)
	Health(ctx context.Context) error
	Close() error
}

// ForecastPublisher ships finished forecasts downstream.
type ForecastPublisher interface {
	Publish(ctx context.Context, r *models.ForecastResult) error
	Close() error
}

// Metrics records forecasting and ingestion telemetry.
type Metrics interface {
	RecordForecast(model, result string, seconds float64)
	RecordForecastSteps(model string, steps int)
	RecordLastForecast(model string, price float64)
	RecordSeriesPoints(code string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
