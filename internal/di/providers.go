package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"ColdPull/internal/domain/repository"
	"ColdPull/internal/handler/api"
	mid "ColdPull/internal/middleware"
	internalrepo "ColdPull/internal/repository"
	"ColdPull/internal/service/sensor"
	"ColdPull/internal/services/export"
	"ColdPull/internal/services/predict"
	"ColdPull/internal/spoilage"
	"ColdPull/internal/usecase"
	pkgcache "ColdPull/pkg/cache"
	pkgch "ColdPull/pkg/clickhouse"
	"ColdPull/pkg/config"
	pkgkafka "ColdPull/pkg/kafka"
	applogger "ColdPull/pkg/logger"
	"ColdPull/pkg/metrics"
	pkgqueue "ColdPull/pkg/queue"
	"ColdPull/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger. When a logs topic is
// configured and Kafka is reachable, error logs are aggregated and
// shipped there as well.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	lcfg := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	if lcfg.Format == "" {
		lcfg.Format = "console"
	}
	if lcfg.Output == "" {
		lcfg.Output = "stdout"
	}

	l, err := applogger.New(lcfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      &producerPublisher{producer: producer},
		})
	}

	return l, nil
}

// producerPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type producerPublisher struct {
	producer *pkgkafka.Producer
}

func (p *producerPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the coldpull schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.sensor_readings (
			ts DateTime64(3),
			product String,
			temp_inside_c Float64,
			temp_outside_c Float64,
			humidity_pct Float64,
			door_open UInt8,
			gas_ppm Float64
		) ENGINE=MergeTree ORDER BY (product, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.spoilage_results (
			ts DateTime64(3),
			product String,
			instant_pct Float64,
			cumulative_pct Float64,
			risk String,
			z_flag UInt8,
			ewma_flag UInt8,
			z_threshold Float64,
			ewma_threshold Float64,
			warn_threshold Float64,
			crit_threshold Float64,
			contrib_temp Float64,
			contrib_humidity Float64,
			contrib_door Float64,
			contrib_gas Float64,
			contrib_interaction Float64,
			contrib_outside Float64,
			notes String
		) ENGINE=MergeTree ORDER BY (product, ts)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers
// are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStorage creates the ClickHouse storage repository.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseStorage(chClient.DB(), db+".sensor_readings", db+".spoilage_results")
}

// ProvideReadingPublisher creates the Kafka publisher for raw readings.
func ProvideReadingPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ReadingsTopic)
}

// ProvideCatalog creates the product profile catalog.
func ProvideCatalog() *spoilage.Catalog {
	return spoilage.NewCatalog()
}

// ProvideCache creates the cache service: layered Redis when enabled,
// in-process memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Cache.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideResultService creates the scoring service with its fan-out.
func ProvideResultService(
	catalog *spoilage.Catalog,
	storage repository.Storage,
	cache pkgcache.Service,
	producer *pkgkafka.Producer,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.ResultService {
	mode := spoilage.ModeAdaptive
	if cfg.Scoring.Mode == "simple" {
		mode = spoilage.ModeSimple
	}
	window := cfg.Scoring.Window
	if window <= 0 {
		window = 30
	}

	opts := []usecase.ResultServiceOption{
		usecase.WithLatestCache(cache, cfg.Cache.LatestTTL),
	}
	if cfg.Scoring.RequireConsecutive > 0 {
		opts = append(opts, usecase.WithRequireConsecutive(cfg.Scoring.RequireConsecutive))
	}
	if producer != nil && cfg.Kafka.ResultsTopic != "" {
		opts = append(opts, usecase.WithResultSink(internalrepo.NewKafkaResultSink(producer, cfg.Kafka.ResultsTopic)))
	}

	return usecase.NewResultService(catalog, window, mode, storage, m, lgr, opts...)
}

// ProvideKafkaConsumer creates a Kafka consumer when the kafka backend
// is selected, nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaReadingsHandler registers the handler for the readings topic.
func ProvideKafkaReadingsHandler(results *usecase.ResultService, m repository.Metrics, cfg *config.Config) *usecase.KafkaReadingsHandler {
	return usecase.NewKafkaReadingsHandler(cfg.Kafka.ReadingsTopic, results, m)
}

// ProvideSensorStream creates the configured sensor source.
func ProvideSensorStream(cfg *config.Config) (repository.SensorStream, error) {
	product := cfg.Scoring.DefaultProduct
	if product == "" && len(cfg.Scoring.Products) > 0 {
		product = cfg.Scoring.Products[0]
	}

	switch cfg.Source.Type {
	case "poll":
		return sensor.NewPoller(cfg.Source.Poll.Endpoint, product, cfg.Source.Poll.Interval, cfg.Source.Poll.Timeout), nil
	case "websocket":
		return sensor.NewWSFeed(cfg.Source.WebSocket.URL, product, cfg.Source.WebSocket.ReconnectDelay, cfg.Source.WebSocket.PingInterval), nil
	case "mqtt":
		return sensor.NewMQTTFeed(
			cfg.Source.MQTT.Broker,
			cfg.Source.MQTT.ClientID,
			cfg.Source.MQTT.Topic,
			cfg.Source.MQTT.QoS,
			cfg.Source.MQTT.Username,
			cfg.Source.MQTT.Password,
			product,
		), nil
	case "replay":
		return sensor.NewReplayer(cfg.Source.Replay.Path, product, cfg.Source.Replay.Pace), nil
	case "synthetic":
		return sensor.NewSynthetic(cfg.Scoring.Products, cfg.Source.Synthetic.Interval, cfg.Source.Synthetic.Seed), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}
}

// ProvideReadingProcessor creates the reading processor use case.
func ProvideReadingProcessor(
	pub repository.Publisher,
	results *usecase.ResultService,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ReadingProcessor {
	return usecase.NewReadingProcessor(
		pub,
		results,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideReadingCollector creates the reading collector use case.
func ProvideReadingCollector(
	stream repository.SensorStream,
	processor *usecase.ReadingProcessor,
	m repository.Metrics,
) *usecase.ReadingCollector {
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(500),
	)
	return usecase.NewReadingCollector(stream, processor, m, pipe)
}

// ProvideRollupStore creates the ClickHouse rollup store.
func ProvideRollupStore(chClient *pkgch.Client, lgr *applogger.Logger, cfg *config.Config) repository.RollupStore {
	store := internalrepo.NewCHRollupStore(chClient, cfg.ClickHouse.Database+".sensor_readings")
	store.SetLogger(lgr)
	return store
}

// ProvideRollupsUseCase creates the rollup trend use case.
func ProvideRollupsUseCase(store repository.RollupStore) *usecase.RollupsUseCase {
	return usecase.NewRollupsUseCase(store)
}

// ProvideExportQueue creates the Redis-backed export queue, or nil when
// Redis is disabled.
func ProvideExportQueue(
	storage repository.Storage,
	lgr *applogger.Logger,
	cfg *config.Config,
) *pkgqueue.RedisQueue {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	exporter := export.NewExporter(storage, cfg.Export.Dir, lgr)
	job := export.NewJob(exporter, cfg.Export.JobTimeout, lgr)

	workers := cfg.Export.Workers
	if workers <= 0 {
		workers = 1
	}
	q := pkgqueue.NewRedisQueue(lgr, &pkgqueue.QueueConfig{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, pkgqueue.ModeProducerConsumer)
	q.RegisterJob(job)
	return q
}

// ProvidePredictor creates the shelf-life predictor client, or nil when
// disabled.
func ProvidePredictor(cache pkgcache.Service, lgr *applogger.Logger, cfg *config.Config) *predict.Client {
	if !cfg.Predictor.Enabled || cfg.Predictor.URL == "" {
		return nil
	}
	return predict.NewClient(cfg.Predictor.URL, cfg.Predictor.Timeout, lgr,
		predict.WithCache(cache, cfg.Predictor.CacheTTL))
}

// ProvideResultsHandler creates the HTTP handler for the scoring API.
func ProvideResultsHandler(
	lgr *applogger.Logger,
	results *usecase.ResultService,
	rollups *usecase.RollupsUseCase,
	q *pkgqueue.RedisQueue,
	predictor *predict.Client,
) *api.ResultsEchoHandler {
	opts := []api.HandlerOption{api.WithRollups(rollups)}
	if q != nil {
		opts = append(opts, api.WithExportQueue(q))
	}
	if predictor != nil {
		opts = append(opts, api.WithPredictor(predictor))
	}
	return api.NewResultsEchoHandler(lgr, results, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.ReadingCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaReadingsHandler,
	chClient *pkgch.Client,
	handler *api.ResultsEchoHandler,
	q *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, lgr, collector, consumer, kh, chClient, handler, q)
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
