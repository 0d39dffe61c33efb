package api

import (
	"errors"
	"time"

	models "ColdPull/internal/domain/models"
	domrepo "ColdPull/internal/domain/repository"
	"ColdPull/internal/services/export"
	"ColdPull/internal/services/predict"
	"ColdPull/internal/usecase"
	xhttp "ColdPull/pkg/http"
	xlogger "ColdPull/pkg/logger"
	"ColdPull/pkg/queue"
	"ColdPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// ResultsEchoHandler exposes the scoring service over HTTP.
type ResultsEchoHandler struct {
	logger    *xlogger.Logger
	results   *usecase.ResultService
	rollups   *usecase.RollupsUseCase
	exports   queue.QueueService
	predictor *predict.Client
}

// HandlerOption configures ResultsEchoHandler.
type HandlerOption func(*ResultsEchoHandler)

// WithExportQueue enables the export endpoint.
func WithExportQueue(q queue.QueueService) HandlerOption {
	return func(h *ResultsEchoHandler) { h.exports = q }
}

// WithRollups enables the rollup trend endpoint.
func WithRollups(uc *usecase.RollupsUseCase) HandlerOption {
	return func(h *ResultsEchoHandler) { h.rollups = uc }
}

// WithPredictor enables the shelf-life prediction endpoint.
func WithPredictor(p *predict.Client) HandlerOption {
	return func(h *ResultsEchoHandler) { h.predictor = p }
}

func NewResultsEchoHandler(logger *xlogger.Logger, results *usecase.ResultService, opts ...HandlerOption) *ResultsEchoHandler {
	h := &ResultsEchoHandler{logger: logger, results: results}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ResultsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/products", h.Products)
	g.GET("/latest", h.Latest)
	g.GET("/history", h.History)
	g.GET("/quality", h.Quality)
	g.GET("/rollup", h.Rollup)
	g.POST("/score", h.Score)
	g.POST("/export", h.Export)
	g.GET("/predict", h.Predict)
}

// Health reports process liveness.
func (h *ResultsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Products lists products the catalog can score.
func (h *ResultsEchoHandler) Products(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.results.Products())
}

// Latest returns the most recent result for a product.
func (h *ResultsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.results.Latest(c.Request().Context(), req.Product)
	if err != nil {
		if errors.Is(err, usecase.ErrNoResults) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no results for product %q", req.Product))
		}
		h.logger.Error("latest lookup error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

// History returns stored results for a product within a time range.
func (h *ResultsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from := util.ParseTimeDefault(req.From, time.Unix(0, 0))
	to := util.ParseTimeDefault(req.To, time.Now())

	rows, err := h.results.History(c.Request().Context(), req.Product, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history lookup error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Quality reports the remaining quality fraction of a product.
func (h *ResultsEchoHandler) Quality(c echo.Context) error {
	req := &models.QualityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"product": req.Product,
		"quality": h.results.Quality(req.Product),
	})
}

// Rollup returns time-bucketed reading aggregates for a product.
func (h *ResultsEchoHandler) Rollup(c echo.Context) error {
	if h.rollups == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("rollups disabled"))
	}
	req := &models.RollupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.rollups.GetRollups(c.Request().Context(), usecase.GetRollupsParams{
		Product: req.Product,
		From:    util.ParseTimeDefault(req.From, time.Now().Add(-24*time.Hour)),
		To:      util.ParseTimeDefault(req.To, time.Now()),
		Bucket:  domrepo.NormalizeBucket(req.Bucket),
		Limit:   req.Limit,
	})
	if err != nil {
		h.logger.Error("rollup usecase error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Score scores an ad-hoc reading submitted in the request body.
func (h *ResultsEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.results.Score(c.Request().Context(), req.Reading())
	if err != nil {
		h.logger.Error("score error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("score failed: %v", err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Export enqueues a background history export.
func (h *ResultsEchoHandler) Export(c echo.Context) error {
	if h.exports == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("export queue disabled"))
	}
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payload := export.JobPayload{
		Product: req.Product,
		From:    req.From,
		To:      req.To,
		Format:  req.Format,
	}
	if err := h.exports.PublishMessage(c.Request().Context(), export.JobTypeHistoryExport, payload); err != nil {
		h.logger.Error("export enqueue error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "queued"})
}

// Predict returns the shelf-life estimate for a product's latest state.
func (h *ResultsEchoHandler) Predict(c echo.Context) error {
	if h.predictor == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("predictor disabled"))
	}
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	latest, err := h.results.Latest(c.Request().Context(), req.Product)
	if err != nil {
		if errors.Is(err, usecase.ErrNoResults) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no results for product %q", req.Product))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	pred, err := h.predictor.Predict(c.Request().Context(), latest)
	if err != nil {
		h.logger.Error("predict error", xlogger.String("product", req.Product), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("predictor unavailable"))
	}
	return xhttp.SuccessResponse(c, pred)
}
