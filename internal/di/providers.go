package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BrentCast/internal/domain/models"
	"BrentCast/internal/domain/repository"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/handler/api"
	internalrepo "BrentCast/internal/repository"
	"BrentCast/internal/scheduler"
	"BrentCast/internal/service/ipeadata"
	apimetrics "BrentCast/internal/service/metrics"
	"BrentCast/internal/service/ratelimit"
	"BrentCast/internal/services/forecast"
	"BrentCast/internal/services/inference"
	"BrentCast/internal/usecase"
	"BrentCast/pkg/cache"
	pkgch "BrentCast/pkg/clickhouse"
	"BrentCast/pkg/config"
	xhttp "BrentCast/pkg/http"
	"BrentCast/pkg/http/middleware"
	pkgkafka "BrentCast/pkg/kafka"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/metrics"
	"BrentCast/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the series table.
// Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SeriesSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", applogger.String("database", cfg.ClickHouse.Database))
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithEncoding(cfg.Kafka.Encoding),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache returns Redis behind an in-process LRU when Redis is enabled,
// and the in-process cache alone otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			cache.WithMemoryDefaultTTL(cfg.Cache.SeriesTTL),
		), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisLockOwner(cfg.Redis.LockOwner),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache ready", applogger.String("host", cfg.Redis.Host))
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(time.Minute),
	), nil
}

// ProvideSeriesStore returns the ClickHouse store, or an in-memory one when
// ClickHouse is disabled, fronted by the cache.
func ProvideSeriesStore(cfg *config.Config, ch *pkgch.Client, c cache.Service, l *applogger.Logger) repository.SeriesStore {
	var base repository.SeriesStore
	if ch != nil {
		chs := internalrepo.NewCHSeriesStore(ch, cfg.ClickHouse.Database)
		chs.SetLogger(l)
		base = chs
	} else {
		l.Warn("clickhouse disabled, series kept in memory")
		base = internalrepo.NewMemorySeriesStore()
	}
	cs := internalrepo.NewCachedSeriesStore(base, c, cfg.Cache.SeriesTTL)
	cs.SetLogger(l)
	return cs
}

// ProvideForecastPublisher returns the Kafka publisher, or a no-op one when Kafka is disabled.
func ProvideForecastPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ForecastPublisher {
	if producer == nil {
		return internalrepo.NewNoopPublisher()
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSeriesSource creates the Ipeadata client.
func ProvideSeriesSource(cfg *config.Config, l *applogger.Logger) domsvc.SeriesSource {
	return ipeadata.New(
		ipeadata.WithBaseURL(cfg.Ipea.BaseURL),
		ipeadata.WithSeriesCode(cfg.Ipea.SeriesCode),
		ipeadata.WithYearGreaterThan(cfg.Ipea.YearGreaterThan),
		ipeadata.WithTimeout(cfg.Ipea.Timeout),
		ipeadata.WithLogger(l),
	)
}

// ProvideArtifactLoader registers every configured model with the loader.
func ProvideArtifactLoader(cfg *config.Config, l *applogger.Logger) (domsvc.ArtifactLoader, error) {
	sources := make(map[string]inference.Source, len(cfg.Models.Specs))
	for _, s := range cfg.Models.Specs {
		sources[s.Name] = inference.Source{Artifact: s.Artifact, Scaler: s.Scaler, RemoteURL: s.RemoteURL}
	}
	loader, err := inference.NewArtifactLoader(cfg.Models.Dir, sources,
		inference.WithCacheSize(cfg.Models.CacheSize),
		inference.WithRemote(cfg.Models.RemoteTimeout, cfg.Models.RemoteAttempts),
		inference.WithLoaderLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("artifact loader: %w", err)
	}
	return loader, nil
}

// ProvideForecaster creates the recursive forecaster.
func ProvideForecaster(cfg *config.Config, l *applogger.Logger) *forecast.Forecaster {
	return forecast.New(
		forecast.WithLogger(l),
		forecast.WithStepBudget(cfg.Forecast.StepBudget),
		forecast.WithNonFiniteGuard(cfg.Forecast.FailOnNonFinite),
	)
}

// ProvideModelInfos lists the configured models.
func ProvideModelInfos(cfg *config.Config) []models.ModelInfo {
	out := make([]models.ModelInfo, 0, len(cfg.Models.Specs))
	for _, s := range cfg.Models.Specs {
		out = append(out, models.ModelInfo{
			Name:     s.Name,
			Variant:  s.Variant,
			Lookback: s.Lookback,
			RMSE:     s.RMSE,
			Remote:   s.RemoteURL != "",
		})
	}
	return out
}

// ProvideSeriesUseCase creates the series use case.
func ProvideSeriesUseCase(cfg *config.Config, src domsvc.SeriesSource, store repository.SeriesStore, m repository.Metrics, l *applogger.Logger) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(src, store, m, cfg.Ipea.SeriesCode, l)
}

// ProvideForecastUseCase creates the forecast use case.
func ProvideForecastUseCase(
	cfg *config.Config,
	series *usecase.SeriesUseCase,
	loader domsvc.ArtifactLoader,
	f *forecast.Forecaster,
	infos []models.ModelInfo,
	pub repository.ForecastPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(series, loader, f, infos,
		usecase.WithPublisher(pub),
		usecase.WithForecastMetrics(m),
		usecase.WithDefaultHorizon(cfg.Forecast.DefaultHorizon),
		usecase.WithForecastTimeout(cfg.Forecast.Timeout),
		usecase.WithForecastLogger(l),
	)
}

// ProvideScheduler creates the cron scheduler. Returns nil when disabled.
func ProvideScheduler(cfg *config.Config, series *usecase.SeriesUseCase, fc *usecase.ForecastUseCase, c cache.Service, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	s := scheduler.NewScheduler(context.Background(), series, fc, c, l)
	if err := s.RegisterAll(cfg.Scheduler.RefreshCron, cfg.Scheduler.ForecastCron); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHTTPServer registers the API handlers on an Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	series *usecase.SeriesUseCase,
	fc *usecase.ForecastUseCase,
	store repository.SeriesStore,
	l *applogger.Logger,
) *xhttp.Server {
	if cfg.Metrics.Enabled {
		apimetrics.Register()
	}
	routes := xhttp.Handlers{
		api.NewSeriesEchoHandler(l, series),
		api.NewForecastEchoHandler(l, fc, ratelimit.New(), api.RateLimit{
			Capacity:     cfg.RateLimit.Capacity,
			RefillPerSec: cfg.RateLimit.RefillPerSec,
		}),
	}
	return xhttp.NewServer(routes,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS.Enabled, middleware.CORSConfig{
			AllowOrigins: cfg.Server.CORS.AllowOrigins,
			AllowMethods: cfg.Server.CORS.AllowMethods,
			MaxAge:       cfg.Server.CORS.MaxAge,
		}),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
		xhttp.WithHealthCheck("series_store", store.Health),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	store repository.SeriesStore,
	pub repository.ForecastPublisher,
	c cache.Service,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, srv, sched, l,
		server.WithClosers(store, pub, c),
	)
}

// Services is the subset of the graph used by the command-line client.
type Services struct {
	Series    *usecase.SeriesUseCase
	Forecast  *usecase.ForecastUseCase
	Store     repository.SeriesStore
	Publisher repository.ForecastPublisher
	Cache     cache.Service
}

// Close releases the store, publisher and cache.
func (s *Services) Close() error {
	return errors.Join(s.Store.Close(), s.Publisher.Close(), s.Cache.Close())
}
