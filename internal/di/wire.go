//go:build wireinject
// +build wireinject

package di

import (
	"BrentCast/pkg/config"
	"BrentCast/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideCache,
)

var domainSet = wire.NewSet(
	ProvideSeriesStore,
	ProvideForecastPublisher,
	ProvideSeriesSource,
	ProvideArtifactLoader,
	ProvideForecaster,
	ProvideModelInfos,
	ProvideSeriesUseCase,
	ProvideForecastUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,
		domainSet,
		ProvideScheduler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeServices wires the use cases without the HTTP server and scheduler.
func InitializeServices(cfg *config.Config) (*Services, error) {
	wire.Build(
		infraSet,
		domainSet,
		wire.Struct(new(Services), "*"),
	)
	return &Services{}, nil
}
