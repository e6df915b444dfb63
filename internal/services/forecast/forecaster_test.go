package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityTransform struct{ unfitted bool }

func (t identityTransform) Forward(raw []float64) ([]float64, error) {
	return append([]float64(nil), raw...), nil
}

func (t identityTransform) Inverse(n []float64) ([]float64, error) {
	return append([]float64(nil), n...), nil
}

func (t identityTransform) Fitted() bool { return !t.unfitted }

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(prices ...float64) models.TimeSeries {
	s := make(models.TimeSeries, len(prices))
	for i, p := range prices {
		s[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: p}
	}
	return s
}

func constant(n int, v float64) models.TimeSeries {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = v
	}
	return seriesOf(prices...)
}

func ramp(n int, from float64) models.TimeSeries {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = from + float64(i)
	}
	return seriesOf(prices...)
}

// tailModel echoes the last window value, in the output shape of the variant.
func tailModel(calls *int, shape ...int) domsvc.Model {
	return domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		if calls != nil {
			*calls++
		}
		return models.Tensor{Shape: shape, Data: []float64{in.Data[len(in.Data)-1]}}, nil
	})
}

func fixed() []Option {
	return []Option{
		WithClock(func() time.Time { return day0 }),
		WithRunID(func() string { return "run-1" }),
	}
}

func TestForecast_FlatConstantSeries(t *testing.T) {
	f := New(fixed()...)
	s := constant(20, 100.0)

	res, err := f.Forecast(context.Background(), Params{
		Name:      "xgboost",
		Model:     tailModel(nil, 1),
		Transform: identityTransform{},
		Series:    s,
		Lookback:  11,
		Horizon:   5,
		Variant:   Flat{Lookback: 11},
	})
	require.NoError(t, err)
	require.Len(t, res.Points, 5)

	last, _ := s.Last()
	for i, p := range res.Points {
		assert.Equal(t, last.Date.AddDate(0, 0, i+1), p.Date)
		assert.Equal(t, 100.0, p.Price)
		assert.Equal(t, models.DirectionFlat, p.Direction)
	}
	assert.Equal(t, "flat", res.Variant)
	assert.Equal(t, "xgboost", res.Model)
	assert.Equal(t, models.DirectionDown, res.Trend)
}

func TestForecast_SequencedLinearExtrapolation(t *testing.T) {
	f := New(fixed()...)
	s := ramp(40, 100.0)
	last, _ := s.Last()
	require.Equal(t, 139.0, last.Price)

	model := domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		require.Equal(t, []int{1, 30, 1}, in.Shape)
		return models.Tensor{Shape: []int{1, 1}, Data: []float64{in.Data[len(in.Data)-1] + 1}}, nil
	})

	res, err := f.Forecast(context.Background(), Params{
		Model:     model,
		Transform: identityTransform{},
		Series:    s,
		Lookback:  30,
		Horizon:   3,
		Variant:   Sequenced{Lookback: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{140, 141, 142}, res.Prices())
	for i, p := range res.Points {
		assert.Equal(t, last.Date.AddDate(0, 0, i+1), p.Date)
		assert.Equal(t, models.DirectionUp, p.Direction)
	}
	assert.Equal(t, models.DirectionUp, res.Trend)
}

func TestForecast_ZeroHorizonSkipsModel(t *testing.T) {
	calls := 0
	res, err := New().Forecast(context.Background(), Params{
		Model:     tailModel(&calls, 1),
		Transform: identityTransform{},
		Series:    constant(11, 1),
		Lookback:  11,
		Horizon:   0,
		Variant:   Flat{},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Points)
	assert.Zero(t, calls)
}

func TestForecast_LengthMatchesHorizon(t *testing.T) {
	f := New()
	for _, h := range []int{1, 2, 15, 40} {
		res, err := f.Forecast(context.Background(), Params{
			Model: tailModel(nil, 1), Transform: identityTransform{},
			Series: ramp(12, 1), Lookback: 11, Horizon: h, Variant: Flat{Lookback: 11},
		})
		require.NoError(t, err)
		assert.Len(t, res.Points, h)
		assert.Equal(t, h, res.Horizon)
	}
}

func TestForecast_InsufficientHistory(t *testing.T) {
	calls := 0
	res, err := New().Forecast(context.Background(), Params{
		Model: tailModel(&calls, 1), Transform: identityTransform{},
		Series: constant(10, 1), Lookback: 11, Horizon: 5, Variant: Flat{Lookback: 11},
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, domsvc.ErrInsufficientHistory)

	var ih *domsvc.InsufficientHistoryError
	require.True(t, errors.As(err, &ih))
	assert.Equal(t, 10, ih.Have)
	assert.Equal(t, 11, ih.Need)
	assert.Zero(t, calls)
}

func TestForecast_NotFitted(t *testing.T) {
	_, err := New().Forecast(context.Background(), Params{
		Model: tailModel(nil, 1), Transform: identityTransform{unfitted: true},
		Series: constant(20, 1), Lookback: 11, Horizon: 5, Variant: Flat{},
	})
	assert.ErrorIs(t, err, domsvc.ErrNotFitted)

	_, err = New().Forecast(context.Background(), Params{
		Model: tailModel(nil, 1), Series: constant(20, 1), Lookback: 11, Horizon: 5, Variant: Flat{},
	})
	assert.ErrorIs(t, err, domsvc.ErrNotFitted)
}

func TestForecast_ShapeMismatch(t *testing.T) {
	// a sequence-model variant paired with the tree model's lookback
	_, err := New().Forecast(context.Background(), Params{
		Model: tailModel(nil, 1, 1), Transform: identityTransform{},
		Series: constant(40, 1), Lookback: 11, Horizon: 5, Variant: Sequenced{Lookback: 30},
	})
	require.ErrorIs(t, err, domsvc.ErrShapeMismatch)

	// flat variant rejects a nested output
	_, err = New().Forecast(context.Background(), Params{
		Model: tailModel(nil, 1, 1), Transform: identityTransform{},
		Series: constant(40, 1), Lookback: 11, Horizon: 5, Variant: Flat{Lookback: 11},
	})
	require.ErrorIs(t, err, domsvc.ErrShapeMismatch)
}

func TestForecast_InvalidParams(t *testing.T) {
	base := Params{Model: tailModel(nil, 1), Transform: identityTransform{}, Series: constant(20, 1), Lookback: 11, Horizon: 1, Variant: Flat{}}
	cases := map[string]func(p *Params){
		"nil model":         func(p *Params) { p.Model = nil },
		"nil variant":       func(p *Params) { p.Variant = nil },
		"zero lookback":     func(p *Params) { p.Lookback = 0 },
		"negative horizon":  func(p *Params) { p.Horizon = -1 },
		"negative lookback": func(p *Params) { p.Lookback = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := New().Forecast(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestForecast_WindowFIFO(t *testing.T) {
	steps := 0
	observer := func(step int, before []float64, pred float64, after []float64) {
		steps++
		assert.Equal(t, steps, step)
		require.Len(t, before, 11)
		require.Len(t, after, 11)
		want := append(append([]float64(nil), before[1:]...), pred)
		assert.Equal(t, want, after)
	}
	model := domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		sum := 0.0
		for _, v := range in.Data {
			sum += v
		}
		return models.Scalar(sum / float64(len(in.Data))), nil
	})

	_, err := New(WithStepObserver(observer)).Forecast(context.Background(), Params{
		Model: model, Transform: identityTransform{},
		Series: ramp(25, 50), Lookback: 11, Horizon: 15, Variant: Flat{Lookback: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, steps)
}

func TestForecast_SeedIsSeriesTail(t *testing.T) {
	var seed []float64
	observer := func(step int, before []float64, _ float64, _ []float64) {
		if step == 1 {
			seed = before
		}
	}
	_, err := New(WithStepObserver(observer)).Forecast(context.Background(), Params{
		Model: tailModel(nil, 1), Transform: identityTransform{},
		Series: ramp(20, 0), Lookback: 11, Horizon: 1, Variant: Flat{Lookback: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, seed)
}

func TestForecast_Deterministic(t *testing.T) {
	f := New(fixed()...)
	model := domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		return models.Scalar(0.9*in.Data[len(in.Data)-1] + 0.1*in.Data[0]), nil
	})
	p := Params{Model: model, Transform: identityTransform{}, Series: ramp(30, 70), Lookback: 11, Horizon: 15, Variant: Flat{Lookback: 11}}

	a, err := f.Forecast(context.Background(), p)
	require.NoError(t, err)
	b, err := f.Forecast(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func nanAtStep(n int, calls *int) domsvc.Model {
	return domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		*calls++
		if *calls == n {
			return models.Scalar(math.NaN()), nil
		}
		return models.Scalar(in.Data[len(in.Data)-1]), nil
	})
}

func TestForecast_NonFiniteGuard(t *testing.T) {
	calls := 0
	res, err := New().Forecast(context.Background(), Params{
		Model: nanAtStep(2, &calls), Transform: identityTransform{},
		Series: constant(20, 100), Lookback: 11, Horizon: 5, Variant: Flat{Lookback: 11},
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, domsvc.ErrNonFiniteForecast)

	var nf *domsvc.NonFiniteForecastError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 2, nf.Step)
	assert.Equal(t, 2, calls, "remaining steps must not run")
}

func TestForecast_NonFinitePropagatesWithoutGuard(t *testing.T) {
	calls := 0
	res, err := New(WithNonFiniteGuard(false)).Forecast(context.Background(), Params{
		Model: nanAtStep(2, &calls), Transform: identityTransform{},
		Series: constant(20, 100), Lookback: 11, Horizon: 5, Variant: Flat{Lookback: 11},
	})
	require.NoError(t, err)
	prices := res.Prices()
	assert.Equal(t, 100.0, prices[0])
	for _, p := range prices[1:] {
		assert.True(t, math.IsNaN(p))
	}
	assert.Equal(t, 5, calls)
}

func TestForecast_ContextCancelledMidLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	model := domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return models.Scalar(in.Data[0]), nil
	})

	res, err := New().Forecast(ctx, Params{
		Model: model, Transform: identityTransform{},
		Series: constant(20, 1), Lookback: 11, Horizon: 5, Variant: Flat{},
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, context.Canceled)

	var inc *IncompleteForecastError
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, 2, inc.Completed)
	assert.Equal(t, 5, inc.Horizon)
}

func TestForecast_StepBudget(t *testing.T) {
	calls := 0
	_, err := New(WithStepBudget(10)).Forecast(context.Background(), Params{
		Model: tailModel(&calls, 1), Transform: identityTransform{},
		Series: constant(20, 1), Lookback: 11, Horizon: 11, Variant: Flat{},
	})
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	assert.Zero(t, calls)
}

type scaleTransform struct{ k float64 }

func (s scaleTransform) Forward(raw []float64) ([]float64, error) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / s.k
	}
	return out, nil
}

func (s scaleTransform) Inverse(n []float64) ([]float64, error) {
	out := make([]float64, len(n))
	for i, v := range n {
		out[i] = v * s.k
	}
	return out, nil
}

func (scaleTransform) Fitted() bool { return true }

func TestForecast_PredictsInNormalizedSpace(t *testing.T) {
	var seen []float64
	model := domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
		if seen == nil {
			seen = append([]float64(nil), in.Data...)
		}
		return models.Tensor{Shape: []int{1, 1}, Data: []float64{in.Data[len(in.Data)-1] + 0.01}}, nil
	})

	res, err := New().Forecast(context.Background(), Params{
		Model: model, Transform: scaleTransform{k: 100},
		Series: constant(30, 80), Lookback: 30, Horizon: 2, Variant: Sequenced{Lookback: 30},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, seen[0], 1e-12)
	assert.InDelta(t, 81.0, res.Points[0].Price, 1e-9)
	assert.InDelta(t, 82.0, res.Points[1].Price, 1e-9)
}
