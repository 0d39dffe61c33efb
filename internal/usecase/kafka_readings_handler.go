package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ColdPull/internal/domain/models"
	domrepo "ColdPull/internal/domain/repository"
	pkgkafka "ColdPull/pkg/kafka"
)

// KafkaReadingsHandler consumes raw readings from Kafka and scores them.
type KafkaReadingsHandler struct {
	topic   string
	scorer  *ResultService
	metrics domrepo.Metrics
}

func NewKafkaReadingsHandler(topic string, scorer *ResultService, metrics domrepo.Metrics) *KafkaReadingsHandler {
	return &KafkaReadingsHandler{topic: topic, scorer: scorer, metrics: metrics}
}

func (h *KafkaReadingsHandler) Topic() string { return h.topic }

func (h *KafkaReadingsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.Reading
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	// E2E latency from sample time to now, when the device stamped it.
	if r.TS != nil {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(int64(*r.TS), 0)).Seconds())
	}

	if _, err := h.scorer.Score(ctx, &r); err != nil {
		h.metrics.RecordError("consumer_score")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaReadingsHandler)(nil)
