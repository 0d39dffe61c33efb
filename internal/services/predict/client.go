package predict

import (
	"context"
	"fmt"
	"time"

	"ColdPull/internal/domain/models"
	pkgcache "ColdPull/pkg/cache"
	xhttp "ColdPull/pkg/http"
	"ColdPull/pkg/logger"
)

// Prediction is the shelf-life estimate returned by the predictor
// service for the current state of a product.
type Prediction struct {
	Product        string  `json:"product"`
	HoursRemaining float64 `json:"hours_remaining"`
	Confidence     float64 `json:"confidence"`
	Model          string  `json:"model,omitempty"`
}

type predictPayload struct {
	Product               string  `json:"product"`
	InstantSpoilagePct    float64 `json:"instant_spoilage_pct"`
	CumulativeSpoilagePct float64 `json:"cumulative_spoilage_pct"`
	RiskLevel             string  `json:"risk_level"`
}

// Client calls the external shelf-life predictor over HTTP. Responses
// are cached per product when a cache is configured, since the model
// input only moves with the cumulative score.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	cache    pkgcache.Service
	cacheTTL time.Duration
	logger   *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithCache enables per-product response caching.
func WithCache(c pkgcache.Service, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		if ttl > 0 {
			cl.cacheTTL = ttl
		}
	}
}

// NewClient creates a predictor client.
func NewClient(baseURL string, timeout time.Duration, lgr *logger.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:  baseURL,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cacheTTL: time.Minute,
		logger:   lgr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict returns the shelf-life estimate for the latest scored state.
func (c *Client) Predict(ctx context.Context, res *models.Result) (*Prediction, error) {
	if res == nil {
		return nil, fmt.Errorf("predict: nil result")
	}

	key := cacheKey(res.Product)
	if c.cache != nil {
		var cached Prediction
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var pred Prediction
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/predict",
		Body: predictPayload{
			Product:               res.Product,
			InstantSpoilagePct:    res.InstantSpoilagePct,
			CumulativeSpoilagePct: res.CumulativeSpoilagePct,
			RiskLevel:             string(res.RiskLevel),
		},
	}, &pred)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", res.Product, err)
	}
	if pred.Product == "" {
		pred.Product = res.Product
	}

	if c.cache != nil {
		if cerr := c.cache.Set(ctx, key, &pred, c.cacheTTL); cerr != nil {
			c.logger.Warn("prediction cache set failed",
				logger.String("product", res.Product), logger.Error(cerr))
		}
	}
	return &pred, nil
}

func cacheKey(product string) string {
	return "prediction:" + product
}
