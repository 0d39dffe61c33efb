package usecase

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"ColdPull/internal/domain/models"
	"ColdPull/internal/spoilage"
	"ColdPull/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	mu       sync.Mutex
	readings []*models.Reading
	results  []*models.Result
}

func (f *fakeStorage) Init(context.Context) error { return nil }

func (f *fakeStorage) StoreReading(_ context.Context, r *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeStorage) StoreReadingBatch(_ context.Context, rs []*models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, rs...)
	return nil
}

func (f *fakeStorage) StoreResult(_ context.Context, res *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func (f *fakeStorage) LatestResult(_ context.Context, product string) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].Product == product {
			return f.results[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStorage) History(_ context.Context, product string, _, _ time.Time, limit int) ([]*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Result
	for _, res := range f.results {
		if res.Product == product {
			out = append(out, res)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStorage) Health(context.Context) error { return nil }
func (f *fakeStorage) Close() error                { return nil }

type fakeSink struct {
	mu        sync.Mutex
	published []*models.Result
	closed    bool
}

func (f *fakeSink) PublishResult(_ context.Context, res *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, res)
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordReadingScored(string)              {}
func (nopMetrics) RecordMessageSent(string, string)        {}
func (nopMetrics) RecordError(string)                      {}
func (nopMetrics) RecordAnomaly(string, string)            {}
func (nopMetrics) RecordRiskTransition(string, string)     {}
func (nopMetrics) RecordSpoilage(string, float64, float64) {}
func (nopMetrics) RecordLatency(string, float64)           {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func sample(product string, ts float64) *models.Reading {
	return &models.Reading{
		TS:           &ts,
		Product:      product,
		TempInsideC:  4.0,
		TempOutsideC: 22.0,
		HumidityPct:  60.0,
		DoorOpen:     0,
		GasPPM:       120.0,
	}
}

func newTestService(t *testing.T, store *fakeStorage, opts ...ResultServiceOption) *ResultService {
	t.Helper()
	return NewResultService(spoilage.NewCatalog(), 30, spoilage.ModeAdaptive, store, nopMetrics{}, testLogger(t), opts...)
}

func TestScorePersistsAndPublishes(t *testing.T) {
	store := &fakeStorage{}
	sink := &fakeSink{}
	svc := newTestService(t, store, WithResultSink(sink))

	res, err := svc.Score(context.Background(), sample("vaccine", 100))
	require.NoError(t, err)
	assert.Equal(t, "vaccine", res.Product)
	assert.Equal(t, models.RiskOK, res.RiskLevel)

	assert.Len(t, store.readings, 1)
	assert.Len(t, store.results, 1)
	assert.Len(t, sink.published, 1)
}

func TestScoreRejectsUnknownProduct(t *testing.T) {
	svc := newTestService(t, &fakeStorage{})

	_, err := svc.Score(context.Background(), sample("plutonium", 100))
	assert.Error(t, err)
}

func TestScoreRejectsNilReading(t *testing.T) {
	svc := newTestService(t, &fakeStorage{})

	_, err := svc.Score(context.Background(), nil)
	assert.ErrorIs(t, err, spoilage.ErrInvalidReading)
}

func TestScoreKeepsPerProductState(t *testing.T) {
	store := &fakeStorage{}
	svc := newTestService(t, store)

	for i := 0; i < 5; i++ {
		_, err := svc.Score(context.Background(), sample("vaccine", float64(100+i*60)))
		require.NoError(t, err)
	}
	_, err := svc.Score(context.Background(), sample("seafood", 100))
	require.NoError(t, err)

	assert.Len(t, store.results, 6)
	assert.Less(t, svc.Quality("vaccine"), 1.0)
	assert.Equal(t, 1.0, svc.Quality("unscored"))
}

func TestLatestFallsBackToStorage(t *testing.T) {
	store := &fakeStorage{}
	svc := newTestService(t, store)

	_, err := svc.Latest(context.Background(), "vaccine")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = svc.Score(context.Background(), sample("vaccine", 100))
	require.NoError(t, err)

	res, err := svc.Latest(context.Background(), "vaccine")
	require.NoError(t, err)
	assert.Equal(t, "vaccine", res.Product)
}

func TestHistoryReturnsStoredResults(t *testing.T) {
	store := &fakeStorage{}
	svc := newTestService(t, store)

	for i := 0; i < 3; i++ {
		_, err := svc.Score(context.Background(), sample("vaccine", float64(100+i*60)))
		require.NoError(t, err)
	}

	rows, err := svc.History(context.Background(), "vaccine", time.Unix(0, 0), time.Now(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestProductsListsCatalog(t *testing.T) {
	svc := newTestService(t, &fakeStorage{})
	assert.NotEmpty(t, svc.Products())
}

func TestCloseReleasesSink(t *testing.T) {
	sink := &fakeSink{}
	svc := newTestService(t, &fakeStorage{}, WithResultSink(sink))
	svc.Close()
	assert.True(t, sink.closed)
}
