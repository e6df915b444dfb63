package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
	applogger "BrentCast/pkg/logger"

	"github.com/google/uuid"
)

// StepObserver sees the working window before and after each slide.
// Slices passed to it are copies and may be retained.
type StepObserver func(step int, before []float64, prediction float64, after []float64)

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithLogger attaches a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Forecaster) { f.l = l }
}

// WithStepBudget rejects horizons larger than n. Zero disables the budget.
func WithStepBudget(n int) Option {
	return func(f *Forecaster) { f.stepBudget = n }
}

// WithNonFiniteGuard toggles failing fast on NaN/Inf predictions. When disabled,
// non-finite values propagate through the window and the inverse transform.
func WithNonFiniteGuard(enabled bool) Option {
	return func(f *Forecaster) { f.guardNonFinite = enabled }
}

// WithStepObserver installs a per-step hook.
func WithStepObserver(fn StepObserver) Option {
	return func(f *Forecaster) { f.observer = fn }
}

// WithClock overrides the GeneratedAt clock.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) { f.now = now }
}

// WithRunID overrides run id generation.
func WithRunID(next func() string) Option {
	return func(f *Forecaster) { f.runID = next }
}

// Forecaster rolls a fitted model forward over a normalized window. It holds no
// per-call state, so one instance may serve concurrent calls.
type Forecaster struct {
	l              *applogger.Logger
	stepBudget     int
	guardNonFinite bool
	observer       StepObserver
	now            func() time.Time
	runID          func() string
}

// New builds a Forecaster. The non-finite guard is on by default.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{
		guardNonFinite: true,
		now:            time.Now,
		runID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Params is one forecast call.
type Params struct {
	Name      string // stamped on the result
	Model     domsvc.Model
	Transform domsvc.Transform
	Series    models.TimeSeries
	Lookback  int
	Horizon   int
	Variant   Variant
}

func (p Params) validate() error {
	switch {
	case p.Model == nil:
		return fmt.Errorf("%w: model is nil", ErrInvalidParams)
	case p.Variant == nil:
		return fmt.Errorf("%w: variant is nil", ErrInvalidParams)
	case p.Lookback <= 0:
		return fmt.Errorf("%w: lookback must be positive, got %d", ErrInvalidParams, p.Lookback)
	case p.Horizon < 0:
		return fmt.Errorf("%w: horizon must be non-negative, got %d", ErrInvalidParams, p.Horizon)
	}
	return nil
}

// Forecast produces Horizon denormalized predictions dated on the calendar days
// following the last observation. Any failure aborts the call with no partial result.
func (f *Forecaster) Forecast(ctx context.Context, p Params) (*models.ForecastResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if f.stepBudget > 0 && p.Horizon > f.stepBudget {
		return nil, fmt.Errorf("%w: horizon %d, budget %d", ErrStepBudgetExceeded, p.Horizon, f.stepBudget)
	}
	if len(p.Series) < p.Lookback {
		return nil, &domsvc.InsufficientHistoryError{Have: len(p.Series), Need: p.Lookback}
	}
	if p.Transform == nil || !p.Transform.Fitted() {
		return nil, &domsvc.NotFittedError{}
	}

	last, _ := p.Series.Last()
	res := &models.ForecastResult{
		RunID:       f.runID(),
		Model:       p.Name,
		Variant:     p.Variant.Name(),
		Lookback:    p.Lookback,
		Horizon:     p.Horizon,
		GeneratedAt: f.now(),
		Points:      []models.ForecastPoint{},
		Trend:       models.DirectionFlat,
	}
	if p.Horizon == 0 {
		return res, nil
	}

	start := time.Now()
	window, err := p.Transform.Forward(p.Series.Tail(p.Lookback).Prices())
	if err != nil {
		return nil, fmt.Errorf("normalize window: %w", err)
	}
	if len(window) != p.Lookback {
		return nil, &domsvc.ShapeMismatchError{Where: "normalized window", Want: []int{p.Lookback}, Got: []int{len(window)}}
	}

	normalized, err := f.roll(ctx, p, window)
	if err != nil {
		return nil, err
	}

	prices, err := p.Transform.Inverse(normalized)
	if err != nil {
		return nil, fmt.Errorf("denormalize predictions: %w", err)
	}
	if len(prices) != p.Horizon {
		return nil, &domsvc.ShapeMismatchError{Where: "denormalized predictions", Want: []int{p.Horizon}, Got: []int{len(prices)}}
	}

	dates := NextDates(last.Date, p.Horizon)
	prev := last.Price
	for i, price := range prices {
		res.Points = append(res.Points, models.ForecastPoint{
			Date:      dates[i],
			Price:     price,
			Direction: directionOf(prev, price),
		})
		prev = price
	}
	res.Trend = TrendOf(prices)

	if f.l != nil {
		f.l.Debug("forecast done",
			applogger.String("run_id", res.RunID),
			applogger.String("model", p.Name),
			applogger.String("variant", res.Variant),
			applogger.Int("lookback", p.Lookback),
			applogger.Int("horizon", p.Horizon),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res, nil
}

// roll runs the recursive loop in normalized space and returns every prediction.
func (f *Forecaster) roll(ctx context.Context, p Params, seed []float64) ([]float64, error) {
	w := make([]float64, len(seed))
	copy(w, seed)
	preds := make([]float64, 0, p.Horizon)

	for step := 1; step <= p.Horizon; step++ {
		if err := ctx.Err(); err != nil {
			return nil, &IncompleteForecastError{Completed: step - 1, Horizon: p.Horizon, Err: err}
		}

		in, err := p.Variant.Adapt(w)
		if err != nil {
			return nil, fmt.Errorf("step %d: adapt window: %w", step, err)
		}
		out, err := p.Model.Predict(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("step %d: predict: %w", step, err)
		}
		pred, err := p.Variant.Extract(out)
		if err != nil {
			return nil, fmt.Errorf("step %d: extract prediction: %w", step, err)
		}
		if f.guardNonFinite && (math.IsNaN(pred) || math.IsInf(pred, 0)) {
			return nil, &domsvc.NonFiniteForecastError{Step: step, Value: pred}
		}
		preds = append(preds, pred)

		var before []float64
		if f.observer != nil {
			before = append([]float64(nil), w...)
		}
		slide(w, pred)
		if f.observer != nil {
			f.observer(step, before, pred, append([]float64(nil), w...))
		}
	}
	return preds, nil
}

// slide evicts the oldest value and appends v in place; the length never changes.
func slide(w []float64, v float64) {
	copy(w, w[1:])
	w[len(w)-1] = v
}
