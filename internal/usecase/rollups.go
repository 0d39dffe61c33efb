package usecase

import (
	"context"
	"fmt"
	"time"

	"ColdPull/internal/domain/models"
	domrepo "ColdPull/internal/domain/repository"
)

// RollupsUseCase provides business logic for retrieving reading rollups.
type RollupsUseCase struct {
	store domrepo.RollupStore
}

func NewRollupsUseCase(store domrepo.RollupStore) *RollupsUseCase {
	return &RollupsUseCase{store: store}
}

type GetRollupsParams struct {
	Product string
	From    time.Time
	To      time.Time
	Bucket  domrepo.Bucket
	Limit   int
}

type GetRollupsResult struct {
	Product string             `json:"product"`
	Bucket  string             `json:"bucket"`
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Count   int                `json:"count"`
	Rows    []models.RollupRow `json:"rows"`
}

func (uc *RollupsUseCase) GetRollups(ctx context.Context, p GetRollupsParams) (*GetRollupsResult, error) {
	if p.Product == "" {
		return nil, fmt.Errorf("product required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1440
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	rows, err := uc.store.GetRollups(ctx, p.Product, p.From, p.To, p.Bucket)
	if err != nil {
		return nil, fmt.Errorf("get rollups: %w", err)
	}
	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}

	return &GetRollupsResult{
		Product: p.Product,
		Bucket:  string(p.Bucket),
		From:    p.From,
		To:      p.To,
		Count:   len(rows),
		Rows:    rows,
	}, nil
}

// GetLatestRollups returns the most recent n buckets in ascending order.
func (uc *RollupsUseCase) GetLatestRollups(ctx context.Context, product string, n int, b domrepo.Bucket) ([]models.RollupRow, error) {
	if product == "" {
		return nil, fmt.Errorf("product required")
	}
	if n <= 0 {
		n = 60
	}
	if n > 10000 {
		n = 10000
	}
	return uc.store.GetLatestNRollups(ctx, product, n, b)
}
