package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts     *prometheus.CounterVec
	forecastTime  *prometheus.HistogramVec
	forecastSteps *prometheus.CounterVec
	lastForecast  *prometheus.GaugeVec
	seriesPoints  *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_forecasts_total",
				Help: "Total number of forecast runs by model and result",
			},
			[]string{"model", "result"},
		),
		forecastTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brentcast_forecast_duration_seconds",
				Help:    "Duration of forecast runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		forecastSteps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_forecast_steps_total",
				Help: "Total number of recursive prediction steps executed",
			},
			[]string{"model"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brentcast_last_forecast_price",
				Help: "Final predicted price of the latest forecast per model",
			},
			[]string{"model"},
		),
		seriesPoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brentcast_series_points",
				Help: "Number of observations in the loaded price series",
			},
			[]string{"series"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brentcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast records one forecast run and its outcome.
func (r *Recorder) RecordForecast(model, result string, seconds float64) {
	r.forecasts.WithLabelValues(model, result).Inc()
	r.forecastTime.WithLabelValues(model).Observe(seconds)
}

func (r *Recorder) RecordForecastSteps(model string, steps int) {
	r.forecastSteps.WithLabelValues(model).Add(float64(steps))
}

func (r *Recorder) RecordLastForecast(model string, price float64) {
	r.lastForecast.WithLabelValues(model).Set(price)
}

func (r *Recorder) RecordSeriesPoints(code string, n int) {
	r.seriesPoints.WithLabelValues(code).Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
