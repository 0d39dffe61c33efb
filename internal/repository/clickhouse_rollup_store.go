package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ColdPull/internal/domain/models"
	domrepo "ColdPull/internal/domain/repository"
	pkgch "ColdPull/pkg/clickhouse"
	applogger "ColdPull/pkg/logger"
)

// CHRollupStore implements RollupStore by aggregating raw readings in
// ClickHouse at query time.
type CHRollupStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRollupStore(ch *pkgch.Client, readingsTable string) *CHRollupStore {
	return &CHRollupStore{db: ch.DB(), table: readingsTable}
}

// SetLogger injects a structured logger.
func (s *CHRollupStore) SetLogger(l *applogger.Logger) { s.l = l }

const rollupSelect = `
        SELECT
            toStartOfInterval(ts, INTERVAL %s) AS bucket,
            product,
            avg(temp_inside_c),
            min(temp_inside_c),
            max(temp_inside_c),
            avg(humidity_pct),
            avg(door_open) * 100,
            avg(gas_ppm),
            count()
        FROM %s
    `

func (s *CHRollupStore) GetRollups(ctx context.Context, product string, from, to time.Time, b domrepo.Bucket) ([]models.RollupRow, error) {
	start := time.Now()
	interval, err := intervalFor(b)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(rollupSelect, interval, s.table) + `
        WHERE product = ? AND ts >= ? AND ts <= ?
        GROUP BY bucket, product
        ORDER BY bucket ASC
    `
	rows, err := s.db.QueryContext(ctx, q, product, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse rollups query error",
				applogger.String("product", product),
				applogger.String("bucket", string(b)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get rollups: %w", err)
	}
	defer rows.Close()

	out := make([]models.RollupRow, 0, 256)
	for rows.Next() {
		var r models.RollupRow
		if err := rows.Scan(&r.Bucket, &r.Product, &r.AvgInsideC, &r.MinInsideC, &r.MaxInsideC,
			&r.AvgHumidityPct, &r.DoorOpenPct, &r.AvgGasPPM, &r.Samples); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse rollups scan error",
					applogger.String("product", product),
					applogger.String("bucket", string(b)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse rollups ok",
			applogger.String("product", product),
			applogger.String("bucket", string(b)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHRollupStore) GetLatestNRollups(ctx context.Context, product string, n int, b domrepo.Bucket) ([]models.RollupRow, error) {
	start := time.Now()
	interval, err := intervalFor(b)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(rollupSelect, interval, s.table) + `
        WHERE product = ?
        GROUP BY bucket, product
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, product, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_rollups query error",
				applogger.String("product", product),
				applogger.String("bucket", string(b)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest rollups: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.RollupRow, 0, n)
	for rows.Next() {
		var r models.RollupRow
		if err := rows.Scan(&r.Bucket, &r.Product, &r.AvgInsideC, &r.MinInsideC, &r.MaxInsideC,
			&r.AvgHumidityPct, &r.DoorOpenPct, &r.AvgGasPPM, &r.Samples); err != nil {
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		tmp = append(tmp, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_rollups ok",
			applogger.String("product", product),
			applogger.String("bucket", string(b)),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func intervalFor(b domrepo.Bucket) (string, error) {
	switch b {
	case domrepo.B1m:
		return "1 minute", nil
	case domrepo.B5m:
		return "5 minute", nil
	case domrepo.B1h:
		return "1 hour", nil
	default:
		return "", fmt.Errorf("unsupported bucket: %s", b)
	}
}
