package usecase

import (
	"context"
	"testing"
	"time"

	"ColdPull/internal/domain/models"
	domrepo "ColdPull/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRollupStore struct {
	rows []models.RollupRow
}

func (f *fakeRollupStore) GetRollups(_ context.Context, _ string, _, _ time.Time, _ domrepo.Bucket) ([]models.RollupRow, error) {
	return f.rows, nil
}

func (f *fakeRollupStore) GetLatestNRollups(_ context.Context, _ string, n int, _ domrepo.Bucket) ([]models.RollupRow, error) {
	if len(f.rows) > n {
		return f.rows[:n], nil
	}
	return f.rows, nil
}

func TestGetRollupsValidation(t *testing.T) {
	uc := NewRollupsUseCase(&fakeRollupStore{})

	_, err := uc.GetRollups(context.Background(), GetRollupsParams{Product: "", Bucket: domrepo.B1m})
	assert.ErrorContains(t, err, "product required")

	now := time.Now()
	_, err = uc.GetRollups(context.Background(), GetRollupsParams{
		Product: "vaccine", From: now, To: now.Add(-time.Hour), Bucket: domrepo.B1m,
	})
	assert.ErrorContains(t, err, "from must be <= to")
}

func TestGetRollupsAppliesLimit(t *testing.T) {
	rows := make([]models.RollupRow, 10)
	for i := range rows {
		rows[i] = models.RollupRow{Product: "vaccine", Samples: uint64(i)}
	}
	uc := NewRollupsUseCase(&fakeRollupStore{rows: rows})

	res, err := uc.GetRollups(context.Background(), GetRollupsParams{
		Product: "vaccine",
		From:    time.Unix(0, 0),
		To:      time.Now(),
		Bucket:  domrepo.B5m,
		Limit:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, "5m", res.Bucket)
}

func TestGetLatestRollupsDefaults(t *testing.T) {
	rows := make([]models.RollupRow, 100)
	uc := NewRollupsUseCase(&fakeRollupStore{rows: rows})

	out, err := uc.GetLatestRollups(context.Background(), "vaccine", 0, domrepo.B1m)
	require.NoError(t, err)
	assert.Len(t, out, 60)

	_, err = uc.GetLatestRollups(context.Background(), "", 5, domrepo.B1m)
	assert.Error(t, err)
}
