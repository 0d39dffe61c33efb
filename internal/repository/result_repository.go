package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ColdPull/internal/domain/models"
	"ColdPull/internal/domain/repository"
	pkgkafka "ColdPull/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db            *sql.DB
	readingsTable string
	resultsTable  string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, readingsTable, resultsTable string) repository.Storage {
	return &ClickHouseStorage{db: db, readingsTable: readingsTable, resultsTable: resultsTable}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func readingTime(ts *float64) time.Time {
	if ts == nil {
		return time.Now()
	}
	sec := int64(*ts)
	nsec := int64((*ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func (s *ClickHouseStorage) StoreReading(ctx context.Context, r *models.Reading) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, product, temp_inside_c, temp_outside_c, humidity_pct, door_open, gas_ppm) VALUES (?, ?, ?, ?, ?, ?, ?)", s.readingsTable)
	_, err := s.db.ExecContext(ctx, q,
		readingTime(r.TS),
		r.Product,
		r.TempInsideC,
		r.TempOutsideC,
		r.HumidityPct,
		uint8(r.DoorOpen),
		r.GasPPM,
	)
	return err
}

func (s *ClickHouseStorage) StoreReadingBatch(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips, chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(readings); start += chunkSize {
		end := start + chunkSize
		if end > len(readings) {
			end = len(readings)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, r := range readings[start:end] {
			if r == nil || r.Product == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				readingTime(r.TS),
				r.Product,
				r.TempInsideC,
				r.TempOutsideC,
				r.HumidityPct,
				uint8(r.DoorOpen),
				r.GasPPM,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, product, temp_inside_c, temp_outside_c, humidity_pct, door_open, gas_ppm) VALUES %s", s.readingsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) StoreResult(ctx context.Context, res *models.Result) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(ts, product, instant_pct, cumulative_pct, risk,
		 z_flag, ewma_flag, z_threshold, ewma_threshold, warn_threshold, crit_threshold,
		 contrib_temp, contrib_humidity, contrib_door, contrib_gas, contrib_interaction, contrib_outside, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.resultsTable)
	_, err := s.db.ExecContext(ctx, q,
		readingTime(res.TS),
		res.Product,
		res.InstantSpoilagePct,
		res.CumulativeSpoilagePct,
		string(res.RiskLevel),
		boolFlag(res.Anomalies.ZScore),
		boolFlag(res.Anomalies.EWMA),
		res.Thresholds.Z,
		res.Thresholds.EWMALimit,
		res.Thresholds.Warn,
		res.Thresholds.Crit,
		res.Contributions.Temp,
		res.Contributions.Humidity,
		res.Contributions.Door,
		res.Contributions.Gas,
		res.Contributions.Interaction,
		res.Contributions.Outside,
		strings.Join(res.Notes, "; "),
	)
	return err
}

const resultColumns = `ts, product, instant_pct, cumulative_pct, risk,
	z_flag, ewma_flag, z_threshold, ewma_threshold, warn_threshold, crit_threshold,
	contrib_temp, contrib_humidity, contrib_door, contrib_gas, contrib_interaction, contrib_outside, notes`

func (s *ClickHouseStorage) LatestResult(ctx context.Context, product string) (*models.Result, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE product = ? ORDER BY ts DESC LIMIT 1", resultColumns, s.resultsTable)
	row := s.db.QueryRowContext(ctx, q, product)

	res, err := scanResult(row)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ClickHouseStorage) History(ctx context.Context, product string, from, to time.Time, limit int) ([]*models.Result, error) {
	if limit <= 0 {
		limit = 100000
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE product = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", resultColumns, s.resultsTable)
	rows, err := s.db.QueryContext(ctx, q, product, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*models.Result, error) {
	var (
		res   models.Result
		ts    time.Time
		risk  string
		zf    uint8
		ef    uint8
		notes string
	)
	err := row.Scan(
		&ts, &res.Product, &res.InstantSpoilagePct, &res.CumulativeSpoilagePct, &risk,
		&zf, &ef, &res.Thresholds.Z, &res.Thresholds.EWMALimit, &res.Thresholds.Warn, &res.Thresholds.Crit,
		&res.Contributions.Temp, &res.Contributions.Humidity, &res.Contributions.Door,
		&res.Contributions.Gas, &res.Contributions.Interaction, &res.Contributions.Outside, &notes,
	)
	if err != nil {
		return nil, err
	}
	sec := float64(ts.UnixNano()) / 1e9
	res.TS = &sec
	res.RiskLevel = models.RiskLevel(risk)
	res.Anomalies.ZScore = zf != 0
	res.Anomalies.EWMA = ef != 0
	if notes != "" {
		res.Notes = strings.Split(notes, "; ")
	}
	return &res, nil
}

func boolFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// KafkaPublisher implements Publisher for the readings topic.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher for raw readings.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.Reading) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Product), r)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(readings))
	for i, r := range readings {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Product), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaResultSink implements ResultSink for the results topic.
type KafkaResultSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultSink creates a Kafka sink for scored results.
func NewKafkaResultSink(producer *pkgkafka.Producer, topic string) repository.ResultSink {
	return &KafkaResultSink{producer: producer, topic: topic}
}

func (p *KafkaResultSink) PublishResult(ctx context.Context, res *models.Result) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Product), res)
}

func (p *KafkaResultSink) Close() error {
	// Producer is shared with the readings publisher; closed there.
	return nil
}
