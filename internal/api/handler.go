// Package api exposes price suggestions and historical data management over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/machinery-pricer/internal/datasource"
	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
	"github.com/yourusername/machinery-pricer/internal/service"
)

// PriceSuggester computes price suggestions
type PriceSuggester interface {
	Suggest(ctx context.Context, req service.SuggestRequest) (*models.Estimate, error)
}

// HistoricalManager imports, clears and summarises historical prices
type HistoricalManager interface {
	ImportReader(ctx context.Context, r io.Reader, name, defaultSource string) (*service.ImportReport, error)
	Clear(ctx context.Context, source, requestedBy string) (int64, error)
	Stats(ctx context.Context) ([]models.HistoricalStats, error)
}

// RouterConfig configures the gin engine
type RouterConfig struct {
	Mode           string
	MaxUploadMB    int
	RequestTimeout time.Duration
}

// APIHandler serves the /api routes
type APIHandler struct {
	prices     PriceSuggester
	historical HistoricalManager
	logger     *logrus.Logger
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg RouterConfig, prices PriceSuggester, historical HistoricalManager, log *logrus.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), RequestTimeout(cfg.RequestTimeout))
	if cfg.MaxUploadMB > 0 {
		r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20
	}

	SetupRoutes(r.Group("/api"), prices, historical, log)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// SetupRoutes registers the API routes on r
func SetupRoutes(r *gin.RouterGroup, prices PriceSuggester, historical HistoricalManager, log *logrus.Logger) *APIHandler {
	handler := &APIHandler{prices: prices, historical: historical, logger: log}

	r.GET("/price-suggestions", handler.GetPriceSuggestion)
	r.POST("/price-suggestions", handler.PostPriceSuggestion)

	hist := r.Group("/historical")
	{
		hist.POST("/import", handler.ImportHistorical)
		hist.DELETE("", handler.ClearHistorical)
		hist.GET("/stats", handler.HistoricalStats)
	}
	return handler
}

// GetPriceSuggestion handles GET /api/price-suggestions
func (h *APIHandler) GetPriceSuggestion(c *gin.Context) {
	req, err := suggestRequestFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.suggest(c, req)
}

// PostPriceSuggestion handles POST /api/price-suggestions
func (h *APIHandler) PostPriceSuggestion(c *gin.Context) {
	var req service.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	h.suggest(c, req)
}

func (h *APIHandler) suggest(c *gin.Context, req service.SuggestRequest) {
	est, err := h.prices.Suggest(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuggestionResponse(est))
}

func suggestRequestFromQuery(c *gin.Context) (service.SuggestRequest, error) {
	req := service.SuggestRequest{
		UseCase: c.Query("use_case"),
		Model:   c.Query("model"),
	}
	var err error
	if req.Year, err = optionalInt(c, "year"); err != nil {
		return req, err
	}
	if req.Hours, err = optionalInt(c, "hours"); err != nil {
		return req, err
	}
	if req.YearTolerance, err = optionalInt(c, "year_tolerance"); err != nil {
		return req, err
	}
	if req.HoursTolerance, err = optionalInt(c, "hours_tolerance"); err != nil {
		return req, err
	}
	if raw := strings.TrimSpace(c.Query("cost")); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return req, errors.New("cost must be a number")
		}
		req.Cost = &cost
	}
	return req, nil
}

func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}

// ImportHistorical handles POST /api/historical/import
func (h *APIHandler) ImportHistorical(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	report, err := h.historical.ImportReader(c.Request.Context(), f, header.Filename, c.PostForm("source"))
	if err != nil {
		if report != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ClearHistorical handles DELETE /api/historical
func (h *APIHandler) ClearHistorical(c *gin.Context) {
	source := c.Query("source")
	deleted, err := h.historical.Clear(c.Request.Context(), source, c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	if source == "" {
		source = "all"
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "source": source})
}

// HistoricalStats handles GET /api/historical/stats
func (h *APIHandler) HistoricalStats(c *gin.Context) {
	stats, err := h.historical.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var total int64
	for _, s := range stats {
		total += s.Records
	}
	if stats == nil {
		stats = []models.HistoricalStats{}
	}
	c.JSON(http.StatusOK, gin.H{"sources": stats, "total": total})
}

// fail maps domain errors onto HTTP status codes
func (h *APIHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, pricing.ErrInvalidQuery),
		errors.Is(err, models.ErrInvalidSource),
		errors.Is(err, datasource.ErrInvalidData),
		errors.Is(err, datasource.ErrMissingColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, datasource.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
