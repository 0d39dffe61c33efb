package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	readingsScored  *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	anomaliesTotal  *prometheus.CounterVec
	riskTransitions *prometheus.CounterVec
	instantSpoilage *prometheus.GaugeVec
	cumulativeSpoil *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		readingsScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpull_readings_scored_total",
				Help: "Total number of sensor readings scored",
			},
			[]string{"product"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpull_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "product"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		anomaliesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpull_anomalies_total",
				Help: "Total number of anomaly detector hits",
			},
			[]string{"product", "detector"},
		),
		riskTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldpull_risk_transitions_total",
				Help: "Total number of risk level transitions",
			},
			[]string{"product", "to"},
		),
		instantSpoilage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coldpull_instant_spoilage_pct",
				Help: "Last instant spoilage score for a product",
			},
			[]string{"product"},
		),
		cumulativeSpoil: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coldpull_cumulative_spoilage_pct",
				Help: "Last cumulative spoilage score for a product",
			},
			[]string{"product"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coldpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordReadingScored records a scored reading for a product.
func (r *Recorder) RecordReadingScored(product string) {
	r.readingsScored.WithLabelValues(product).Inc()
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, product string) {
	r.messagesSent.WithLabelValues(backend, product).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAnomaly records an anomaly detector hit.
func (r *Recorder) RecordAnomaly(product, detector string) {
	r.anomaliesTotal.WithLabelValues(product, detector).Inc()
}

// RecordRiskTransition records a change of risk level.
func (r *Recorder) RecordRiskTransition(product, to string) {
	r.riskTransitions.WithLabelValues(product, to).Inc()
}

// RecordSpoilage records the last instant and cumulative scores for a product.
func (r *Recorder) RecordSpoilage(product string, instant, cumulative float64) {
	r.instantSpoilage.WithLabelValues(product).Set(instant)
	r.cumulativeSpoil.WithLabelValues(product).Set(cumulative)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
