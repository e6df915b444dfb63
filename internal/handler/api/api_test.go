package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/repository"
	"BrentCast/internal/service/ratelimit"
	"BrentCast/internal/services/forecast"
	"BrentCast/internal/services/normalize"
	"BrentCast/internal/usecase"
	xhttp "BrentCast/pkg/http"
)

type stubSource struct {
	series models.TimeSeries
	err    error
}

func (s stubSource) Fetch(context.Context) (models.TimeSeries, error) { return s.series, s.err }

type stubLoader struct{}

func (stubLoader) LoadModel(_ context.Context, name string) (domsvc.Model, error) {
	switch name {
	case "xgboost", "lstm":
		return domsvc.ModelFunc(func(_ context.Context, in models.Tensor) (models.Tensor, error) {
			return models.NewTensor([]float64{in.Data[len(in.Data)-1] + 0.5}, 1)
		}), nil
	case "nan":
		return domsvc.ModelFunc(func(context.Context, models.Tensor) (models.Tensor, error) {
			return models.NewTensor([]float64{math.NaN()}, 1)
		}), nil
	case "broken":
		return domsvc.ModelFunc(func(context.Context, models.Tensor) (models.Tensor, error) {
			return models.NewTensor([]float64{1, 2}, 2)
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", domsvc.ErrUnknownModel, name)
}

func (stubLoader) LoadTransform(context.Context, string) (domsvc.Transform, error) {
	return normalize.Identity{}, nil
}

func series(n int) models.TimeSeries {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.TimeSeries, n)
	for i := range s {
		s[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: 80 + float64(i%7)}
	}
	return s
}

func newTestEcho(t *testing.T, src stubSource, limit RateLimit, opts ...forecast.Option) *echo.Echo {
	t.Helper()
	su := usecase.NewSeriesUseCase(src, repository.NewMemorySeriesStore(), nil, "BRENT", nil)
	infos := []models.ModelInfo{
		{Name: "xgboost", Variant: forecast.VariantFlat, Lookback: 11, RMSE: 1.74},
		{Name: "lstm", Variant: forecast.VariantSequenced, Lookback: 60, RMSE: 2.12},
		{Name: "broken", Variant: forecast.VariantFlat, Lookback: 11},
		{Name: "nan", Variant: forecast.VariantFlat, Lookback: 11},
	}
	fu := usecase.NewForecastUseCase(su, stubLoader{}, forecast.New(opts...), infos)
	e := echo.New()
	xhttp.Handlers{
		NewSeriesEchoHandler(nil, su),
		NewForecastEchoHandler(nil, fu, ratelimit.New(), limit),
	}.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestModels(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(100)}, RateLimit{})
	rec, env := do(t, e, http.MethodGet, "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Rows  []models.ModelInfo `json:"rows"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 4, list.Total)
	assert.Equal(t, "xgboost", list.Rows[0].Name)
}

func TestForecast_Defaults(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(400)}, RateLimit{})
	rec, env := do(t, e, http.MethodGet, "/api/forecast")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view models.ForecastView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "xgboost", view.Model.Name)
	assert.Len(t, view.History, 365)
	assert.Len(t, view.Forecast.Points, 15)
}

func TestForecast_Query(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(100)}, RateLimit{})
	rec, env := do(t, e, http.MethodGet, "/api/forecast?model=lstm&horizon=5&history_days=30")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view models.ForecastView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.History, 30)
	require.Len(t, view.Forecast.Points, 5)
	assert.Equal(t, "sequenced", view.Forecast.Variant)
}

func TestForecast_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		target string
		n      int
		want   int
	}{
		{"unknown model", "/api/forecast?model=arima", 100, http.StatusNotFound},
		{"horizon out of range", "/api/forecast?horizon=200", 100, http.StatusBadRequest},
		{"history_days out of range", "/api/forecast?history_days=10", 100, http.StatusBadRequest},
		{"insufficient history", "/api/forecast?model=lstm", 40, http.StatusUnprocessableEntity},
		{"bad model output", "/api/forecast?model=broken", 100, http.StatusInternalServerError},
		{"non-finite prediction", "/api/forecast?model=nan", 100, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho(t, stubSource{series: series(tc.n)}, RateLimit{})
			rec, env := do(t, e, http.MethodGet, tc.target)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Equal(t, tc.want, env.Status)
		})
	}
}

func TestForecastCSV(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(100)}, RateLimit{})
	rec, _ := do(t, e, http.MethodGet, "/api/forecast/csv?horizon=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "previsao_xgboost_")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Data,Preço Previsto (USD)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "10/04/2024,"), lines[1])
}

func TestForecast_NonFiniteWithoutGuard(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(100)}, RateLimit{}, forecast.WithNonFiniteGuard(false))

	rec, env := do(t, e, http.MethodGet, "/api/forecast?model=nan&horizon=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":null`)
	var view models.ForecastView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Forecast.Points, 2)
	assert.True(t, math.IsNaN(view.Forecast.Points[0].Price))

	rec, _ = do(t, e, http.MethodGet, "/api/forecast/csv?model=nan&horizon=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "10/04/2024,NaN", lines[1])
}

func TestForecast_RateLimited(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(100)}, RateLimit{Capacity: 1})
	rec, _ := do(t, e, http.MethodGet, "/api/forecast?horizon=1")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/forecast?horizon=1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/models")
	assert.Equal(t, http.StatusOK, rec.Code, "model listing is not limited")
}

func TestSeriesEndpoints(t *testing.T) {
	e := newTestEcho(t, stubSource{series: series(800)}, RateLimit{})

	rec, env := do(t, e, http.MethodGet, "/api/series?years=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 366, list.Total)

	rec, env = do(t, e, http.MethodGet, "/api/series?from=10/03/2026")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)

	rec, _ = do(t, e, http.MethodGet, "/api/series?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/api/series/moving-averages?windows=7&windows=30")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mas []models.MovingAverageSeries
	require.NoError(t, json.Unmarshal(env.Data, &mas))
	require.Len(t, mas, 2)
	assert.Equal(t, 7, mas[0].Window)

	rec, _ = do(t, e, http.MethodGet, "/api/series/moving-averages?windows=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/series/monthly-change")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/series/events")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/series/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeries_UpstreamFailure(t *testing.T) {
	e := newTestEcho(t, stubSource{err: errors.New("timeout")}, RateLimit{})
	rec, env := do(t, e, http.MethodGet, "/api/series")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, http.StatusBadGateway, env.Status)
}

func TestToAppError(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, toAppError(context.DeadlineExceeded).Status)
	assert.Equal(t, http.StatusBadGateway, toAppError(&domsvc.NonFiniteForecastError{Step: 3}).Status)
	assert.Equal(t, http.StatusInternalServerError, toAppError(errors.New("boom")).Status)
}
