package usecase

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"
	"ColdPull/internal/spoilage"
	pkgcache "ColdPull/pkg/cache"
	"ColdPull/pkg/logger"
)

// ErrNoResults is returned when no scored result exists for a product yet.
var ErrNoResults = errors.New("no results for product")

// ResultService owns one scoring engine per product and fans scored
// results out to storage, the results topic, and the latest-result cache.
type ResultService struct {
	catalog            *spoilage.Catalog
	window             int
	mode               spoilage.Mode
	requireConsecutive int

	mu        sync.Mutex
	engines   map[string]*spoilage.Engine
	lastLevel map[string]models.RiskLevel

	storage   drepo.Storage
	sink      drepo.ResultSink
	cache     pkgcache.Service
	latestTTL time.Duration
	metrics   drepo.Metrics
	logger    *logger.Logger
}

// ResultServiceOption configures ResultService.
type ResultServiceOption func(*ResultService)

// WithResultSink sets the sink for scored results.
func WithResultSink(sink drepo.ResultSink) ResultServiceOption {
	return func(s *ResultService) { s.sink = sink }
}

// WithLatestCache sets the cache used for latest-result lookups.
func WithLatestCache(c pkgcache.Service, ttl time.Duration) ResultServiceOption {
	return func(s *ResultService) {
		s.cache = c
		if ttl > 0 {
			s.latestTTL = ttl
		}
	}
}

// WithRequireConsecutive sets the debounce depth applied to new engines.
func WithRequireConsecutive(n int) ResultServiceOption {
	return func(s *ResultService) {
		if n > 0 {
			s.requireConsecutive = n
		}
	}
}

// NewResultService creates a scoring service for the given catalog.
func NewResultService(
	catalog *spoilage.Catalog,
	window int,
	mode spoilage.Mode,
	storage drepo.Storage,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	opts ...ResultServiceOption,
) *ResultService {
	s := &ResultService{
		catalog:   catalog,
		window:    window,
		mode:      mode,
		engines:   make(map[string]*spoilage.Engine),
		lastLevel: make(map[string]models.RiskLevel),
		storage:   storage,
		latestTTL: 5 * time.Minute,
		metrics:   metrics,
		logger:    lgr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Products lists products the catalog can score.
func (s *ResultService) Products() []string {
	return s.catalog.Products()
}

// Score runs one reading through the per-product engine and fans the
// result out. Storage and sink failures are logged, not returned: the
// score itself is still valid.
func (s *ResultService) Score(ctx context.Context, r *models.Reading) (*models.Result, error) {
	if r == nil {
		return nil, spoilage.ErrInvalidReading
	}
	start := time.Now()

	s.mu.Lock()
	eng, ok := s.engines[r.Product]
	if !ok {
		eng = spoilage.NewEngine(s.catalog, r.Product, s.window, s.mode)
		if s.requireConsecutive > 0 {
			eng.SetRequireConsecutive(s.requireConsecutive)
		}
		s.engines[r.Product] = eng
	}
	res, err := eng.Update(r)
	var prev models.RiskLevel
	if err == nil {
		prev = s.lastLevel[r.Product]
		s.lastLevel[r.Product] = res.RiskLevel
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.RecordError("score")
		return nil, err
	}

	s.metrics.RecordReadingScored(r.Product)
	s.metrics.RecordSpoilage(r.Product, res.InstantSpoilagePct, res.CumulativeSpoilagePct)
	if res.Anomalies.ZScore {
		s.metrics.RecordAnomaly(r.Product, "zscore")
	}
	if res.Anomalies.EWMA {
		s.metrics.RecordAnomaly(r.Product, "ewma")
	}
	if res.RiskLevel != prev {
		s.metrics.RecordRiskTransition(r.Product, string(res.RiskLevel))
	}

	s.persist(ctx, r, res)

	if s.sink != nil {
		if perr := s.sink.PublishResult(ctx, res); perr != nil {
			s.metrics.RecordError("result_publish")
			s.logger.Error("result publish failed", logger.String("product", r.Product), logger.Error(perr))
		}
	}

	if s.cache != nil {
		if cerr := s.cache.Set(ctx, latestKey(r.Product), res, s.latestTTL); cerr != nil {
			s.logger.Warn("latest cache set failed", logger.String("product", r.Product), logger.Error(cerr))
		}
	}

	s.metrics.RecordLatency("score", time.Since(start).Seconds())
	return res, nil
}

func (s *ResultService) persist(ctx context.Context, r *models.Reading, res *models.Result) {
	if s.storage == nil {
		return
	}
	if err := s.storage.StoreReading(ctx, r); err != nil {
		s.metrics.RecordError("store_reading")
		s.logger.Error("store reading failed", logger.String("product", r.Product), logger.Error(err))
	}
	if err := s.storage.StoreResult(ctx, res); err != nil {
		s.metrics.RecordError("store_result")
		s.logger.Error("store result failed", logger.String("product", r.Product), logger.Error(err))
	}
}

// Latest returns the most recent result for a product, preferring the
// cache over storage.
func (s *ResultService) Latest(ctx context.Context, product string) (*models.Result, error) {
	if s.cache != nil {
		var res models.Result
		if err := s.cache.Get(ctx, latestKey(product), &res); err == nil {
			return &res, nil
		}
	}
	if s.storage == nil {
		return nil, ErrNoResults
	}
	res, err := s.storage.LatestResult(ctx, product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoResults
		}
		return nil, err
	}
	return res, nil
}

// History returns stored results for a product within a time range.
func (s *ResultService) History(ctx context.Context, product string, from, to time.Time, limit int) ([]*models.Result, error) {
	if s.storage == nil {
		return nil, ErrNoResults
	}
	return s.storage.History(ctx, product, from, to, limit)
}

// Quality returns the remaining quality fraction for a product's engine,
// or 1.0 if the product has not been scored yet.
func (s *ResultService) Quality(product string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engines[product]; ok {
		return eng.Quality()
	}
	return 1.0
}

// Close releases the sink.
func (s *ResultService) Close() {
	if s.sink != nil {
		_ = s.sink.Close()
	}
}

func latestKey(product string) string {
	return "latest:" + product
}
