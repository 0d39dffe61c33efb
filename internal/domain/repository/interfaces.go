package repository

import (
	"context"
	"time"

	"ColdPull/internal/domain/models"
)

// SensorStream is a source of environmental readings: a hardware HTTP
// endpoint, a WebSocket or MQTT feed, a CSV replay, or a synthetic generator.
type SensorStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Reading, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher sends raw readings to the message broker.
type Publisher interface {
	Publish(ctx context.Context, r *models.Reading) error
	PublishBatch(ctx context.Context, readings []*models.Reading) error
	Close() error
}

// ResultSink sends scored results downstream (dashboards, alerting).
type ResultSink interface {
	PublishResult(ctx context.Context, res *models.Result) error
	Close() error
}

// Storage persists readings and scored results.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreReading(ctx context.Context, r *models.Reading) error
	StoreReadingBatch(ctx context.Context, readings []*models.Reading) error
	StoreResult(ctx context.Context, res *models.Result) error
	LatestResult(ctx context.Context, product string) (*models.Result, error)
	History(ctx context.Context, product string, from, to time.Time, limit int) ([]*models.Result, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordReadingScored(product string)
	RecordMessageSent(backend, product string)
	RecordError(kind string)
	RecordAnomaly(product, detector string)
	RecordRiskTransition(product, to string)
	RecordSpoilage(product string, instant, cumulative float64)
	RecordLatency(op string, seconds float64)
}
