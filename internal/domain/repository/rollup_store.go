package repository

import (
	"context"
	"time"

	"ColdPull/internal/domain/models"
)

// RollupStore provides read-only access to time-bucketed reading
// aggregates for dashboards and trend queries.
type RollupStore interface {
	GetRollups(ctx context.Context, product string, from, to time.Time, b Bucket) ([]models.RollupRow, error)
	GetLatestNRollups(ctx context.Context, product string, n int, b Bucket) ([]models.RollupRow, error)
}
