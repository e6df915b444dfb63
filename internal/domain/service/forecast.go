package service

import (
	"context"

	"BrentCast/internal/domain/models"
)

// Model predicts one normalized step from a window already adapted to its input shape.
// Implementations must be safe for concurrent read-only use if they are shared.
type Model interface {
	Predict(ctx context.Context, input models.Tensor) (models.Tensor, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, input models.Tensor) (models.Tensor, error)

func (f ModelFunc) Predict(ctx context.Context, input models.Tensor) (models.Tensor, error) {
	return f(ctx, input)
}

// Transform maps raw prices to model scale and back. It is fitted ahead of time
// and immutable at inference time.
type Transform interface {
	Forward(raw []float64) ([]float64, error)
	Inverse(normalized []float64) ([]float64, error)
	Fitted() bool
}

// ArtifactLoader resolves persisted models and transforms by name.
type ArtifactLoader interface {
	LoadModel(ctx context.Context, name string) (Model, error)
	LoadTransform(ctx context.Context, name string) (Transform, error)
}

// SeriesSource fetches the raw daily price series from upstream.
type SeriesSource interface {
	Fetch(ctx context.Context) (models.TimeSeries, error)
}
