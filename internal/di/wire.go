//go:build wireinject
// +build wireinject

package di

import (
	"ColdPull/pkg/config"
	"ColdPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideCache,

		// Repositories (with business logic)
		ProvideStorage,
		ProvideReadingPublisher,
		ProvideSensorStream,

		// Scoring
		ProvideCatalog,
		ProvideResultService,

		// Use cases
		ProvideReadingProcessor,
		ProvideReadingCollector,
		ProvideKafkaConsumer,
		ProvideKafkaReadingsHandler,

		// Background services and HTTP surface
		ProvideRollupStore,
		ProvideRollupsUseCase,
		ProvideExportQueue,
		ProvidePredictor,
		ProvideResultsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
