// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"ColdPull/pkg/config"
	"ColdPull/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := ProvideLogger(cfg, producer)
	if err != nil {
		return nil, err
	}
	sensorStream, err := ProvideSensorStream(cfg)
	if err != nil {
		return nil, err
	}
	publisher := ProvideReadingPublisher(producer, cfg)
	catalog := ProvideCatalog()
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	storage := ProvideStorage(client, cfg)
	service, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	metrics := ProvideMetrics()
	resultService := ProvideResultService(catalog, storage, service, producer, metrics, logger, cfg)
	readingProcessor := ProvideReadingProcessor(publisher, resultService, metrics, cfg)
	readingCollector := ProvideReadingCollector(sensorStream, readingProcessor, metrics)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	kafkaReadingsHandler := ProvideKafkaReadingsHandler(resultService, metrics, cfg)
	rollupStore := ProvideRollupStore(client, logger, cfg)
	rollupsUseCase := ProvideRollupsUseCase(rollupStore)
	redisQueue := ProvideExportQueue(storage, logger, cfg)
	predictClient := ProvidePredictor(service, logger, cfg)
	resultsEchoHandler := ProvideResultsHandler(logger, resultService, rollupsUseCase, redisQueue, predictClient)
	app := ProvideApp(cfg, logger, readingCollector, consumer, kafkaReadingsHandler, client, resultsEchoHandler, redisQueue)
	return app, nil
}
