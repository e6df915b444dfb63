package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/services/forecast"
	applogger "BrentCast/pkg/logger"
)

// DefaultHistoryDays is how much history a forecast view carries.
const DefaultHistoryDays = 365

// seriesProvider is the part of SeriesUseCase a forecast needs.
type seriesProvider interface {
	Series(ctx context.Context) (models.TimeSeries, error)
}

// batchPublisher is implemented by publishers that can ship many forecasts at once.
type batchPublisher interface {
	PublishAll(ctx context.Context, results []*models.ForecastResult) error
}

// ForecastUseCase runs configured models over the stored series.
type ForecastUseCase struct {
	series     seriesProvider
	loader     domsvc.ArtifactLoader
	forecaster *forecast.Forecaster
	publisher  domrepo.ForecastPublisher
	metrics    domrepo.Metrics
	models     map[string]models.ModelInfo
	order      []string
	horizon    int
	timeout    time.Duration
	l          *applogger.Logger
}

// ForecastOption configures a ForecastUseCase.
type ForecastOption func(*ForecastUseCase)

// WithPublisher ships every finished forecast through p.
func WithPublisher(p domrepo.ForecastPublisher) ForecastOption {
	return func(uc *ForecastUseCase) { uc.publisher = p }
}

// WithForecastMetrics records forecast telemetry.
func WithForecastMetrics(m domrepo.Metrics) ForecastOption {
	return func(uc *ForecastUseCase) { uc.metrics = m }
}

// WithDefaultHorizon sets the horizon used when a caller passes a negative one.
func WithDefaultHorizon(n int) ForecastOption {
	return func(uc *ForecastUseCase) { uc.horizon = n }
}

// WithForecastTimeout bounds a single forecast call.
func WithForecastTimeout(d time.Duration) ForecastOption {
	return func(uc *ForecastUseCase) { uc.timeout = d }
}

// WithForecastLogger sets the logger.
func WithForecastLogger(l *applogger.Logger) ForecastOption {
	return func(uc *ForecastUseCase) { uc.l = l }
}

func NewForecastUseCase(series seriesProvider, loader domsvc.ArtifactLoader, f *forecast.Forecaster, infos []models.ModelInfo, opts ...ForecastOption) *ForecastUseCase {
	uc := &ForecastUseCase{
		series:     series,
		loader:     loader,
		forecaster: f,
		models:     make(map[string]models.ModelInfo, len(infos)),
		horizon:    15,
		timeout:    30 * time.Second,
	}
	for _, m := range infos {
		if _, dup := uc.models[m.Name]; !dup {
			uc.order = append(uc.order, m.Name)
		}
		uc.models[m.Name] = m
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Models lists the configured models in registration order.
func (uc *ForecastUseCase) Models() []models.ModelInfo {
	out := make([]models.ModelInfo, 0, len(uc.order))
	for _, name := range uc.order {
		out = append(out, uc.models[name])
	}
	return out
}

// Model returns the info of a configured model.
func (uc *ForecastUseCase) Model(name string) (models.ModelInfo, error) {
	m, ok := uc.models[name]
	if !ok {
		return models.ModelInfo{}, fmt.Errorf("%w: %q", domsvc.ErrUnknownModel, name)
	}
	return m, nil
}

// Forecast runs the named model horizon days past the last observation and
// publishes the result. A negative horizon uses the default. Publishing
// failures are logged and do not fail the call.
func (uc *ForecastUseCase) Forecast(ctx context.Context, name string, horizon int) (*models.ForecastResult, error) {
	if _, err := uc.Model(name); err != nil {
		return nil, err
	}
	s, err := uc.series.Series(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.run(ctx, name, horizon, s)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, res)
	return res, nil
}

// View runs a forecast and attaches the trailing historyDays of the series.
func (uc *ForecastUseCase) View(ctx context.Context, name string, horizon, historyDays int) (*models.ForecastView, error) {
	info, err := uc.Model(name)
	if err != nil {
		return nil, err
	}
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	s, err := uc.series.Series(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.run(ctx, name, horizon, s)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, res)
	return &models.ForecastView{Model: info, History: s.Tail(historyDays), Forecast: res}, nil
}

// ForecastAll runs every configured model concurrently. Results come back in
// registration order; failed models are reported in the joined error.
func (uc *ForecastUseCase) ForecastAll(ctx context.Context, horizon int) ([]*models.ForecastResult, error) {
	s, err := uc.series.Series(ctx)
	if err != nil {
		return nil, err
	}

	type item struct {
		idx int
		res *models.ForecastResult
		err error
	}
	ch := make(chan item, len(uc.order))
	var wg sync.WaitGroup
	for i, name := range uc.order {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			res, err := uc.run(ctx, name, horizon, s)
			ch <- item{i, res, err}
		}(i, name)
	}
	go func() { wg.Wait(); close(ch) }()

	var (
		items []item
		errs  []error
	)
	for it := range ch {
		if it.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", uc.order[it.idx], it.err))
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(a, b int) bool { return items[a].idx < items[b].idx })
	out := make([]*models.ForecastResult, 0, len(items))
	for _, it := range items {
		out = append(out, it.res)
	}

	if len(out) > 0 && uc.publisher != nil {
		if bp, ok := uc.publisher.(batchPublisher); ok {
			if err := bp.PublishAll(ctx, out); err != nil {
				uc.publishFailed(err)
			}
		} else {
			for _, r := range out {
				uc.publish(ctx, r)
			}
		}
	}
	return out, errors.Join(errs...)
}

func (uc *ForecastUseCase) run(ctx context.Context, name string, horizon int, s models.TimeSeries) (*models.ForecastResult, error) {
	info, err := uc.Model(name)
	if err != nil {
		return nil, err
	}
	if horizon < 0 {
		horizon = uc.horizon
	}
	variant, err := forecast.ParseVariant(info.Variant, info.Lookback)
	if err != nil {
		return nil, err
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	start := time.Now()
	model, err := uc.loader.LoadModel(ctx, name)
	if err != nil {
		uc.record(name, "load_error", start)
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	tr, err := uc.loader.LoadTransform(ctx, name)
	if err != nil {
		uc.record(name, "load_error", start)
		return nil, fmt.Errorf("load transform %s: %w", name, err)
	}

	res, err := uc.forecaster.Forecast(ctx, forecast.Params{
		Name:      name,
		Model:     model,
		Transform: tr,
		Series:    s,
		Lookback:  info.Lookback,
		Horizon:   horizon,
		Variant:   variant,
	})
	if err != nil {
		uc.record(name, "error", start)
		if uc.l != nil {
			uc.l.Warn("forecast failed", applogger.String("model", name), applogger.Int("horizon", horizon), applogger.Error(err))
		}
		return nil, err
	}

	uc.record(name, "ok", start)
	if uc.metrics != nil {
		uc.metrics.RecordForecastSteps(name, len(res.Points))
		if n := len(res.Points); n > 0 {
			uc.metrics.RecordLastForecast(name, res.Points[n-1].Price)
		}
	}
	if uc.l != nil {
		uc.l.Info("forecast complete",
			applogger.String("model", name),
			applogger.String("run_id", res.RunID),
			applogger.Int("horizon", horizon),
			applogger.String("trend", string(res.Trend)),
			applogger.Duration("took", time.Since(start)))
	}
	return res, nil
}

func (uc *ForecastUseCase) record(name, result string, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RecordForecast(name, result, time.Since(start).Seconds())
	if result != "ok" {
		uc.metrics.RecordError("forecast_" + result)
	}
}

func (uc *ForecastUseCase) publish(ctx context.Context, r *models.ForecastResult) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, r); err != nil {
		uc.publishFailed(err)
	}
}

func (uc *ForecastUseCase) publishFailed(err error) {
	if uc.metrics != nil {
		uc.metrics.RecordError("forecast_publish")
	}
	if uc.l != nil {
		uc.l.Warn("publish forecast failed", applogger.Error(err))
	}
}
