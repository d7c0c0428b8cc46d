package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/machinery-pricer/internal/cache"
	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/logger"
	"github.com/yourusername/machinery-pricer/internal/metrics"
	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
	"github.com/yourusername/machinery-pricer/internal/repository"
	"github.com/yourusername/machinery-pricer/internal/tracing"
)

// SuggestRequest is a price suggestion request. Nil tolerances fall back to
// the configured per use case values.
type SuggestRequest struct {
	UseCase        string           `json:"use_case" form:"use_case"`
	Model          string           `json:"model" form:"model"`
	Year           *int             `json:"year,omitempty" form:"year"`
	Hours          *int             `json:"hours,omitempty" form:"hours"`
	Cost           *decimal.Decimal `json:"cost,omitempty" form:"-"`
	YearTolerance  *int             `json:"year_tolerance,omitempty" form:"year_tolerance"`
	HoursTolerance *int             `json:"hours_tolerance,omitempty" form:"hours_tolerance"`
}

// PriceService answers price suggestion requests
type PriceService struct {
	historical repository.HistoricalRepository
	live       repository.LiveRepository
	estimator  *pricing.Estimator
	store      cache.Store
	settings   map[models.UseCase]UseCaseSettings
	pricingLog *logger.PricingLogger
	logger     *logrus.Logger
}

// NewPriceService creates a new price service
func NewPriceService(
	historical repository.HistoricalRepository,
	live repository.LiveRepository,
	store cache.Store,
	cfg config.EstimatorConfig,
	log *logrus.Logger,
	opts ...pricing.Option,
) *PriceService {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &PriceService{
		historical: historical,
		live:       live,
		estimator:  pricing.NewEstimator(ParamsFromConfig(cfg), opts...),
		store:      store,
		settings:   SettingsFromConfig(cfg),
		pricingLog: logger.NewPricingLogger(log),
		logger:     log,
	}
}

// Query validates req and resolves it into a models.QuerySpec
func (s *PriceService) Query(req SuggestRequest) (models.QuerySpec, error) {
	useCase := models.UseCase(strings.ToLower(strings.TrimSpace(req.UseCase)))
	settings, ok := s.settings[useCase]
	if !ok {
		return models.QuerySpec{}, fmt.Errorf("%w: unknown use case %q", pricing.ErrInvalidQuery, req.UseCase)
	}

	q := models.QuerySpec{
		UseCase:        useCase,
		Model:          strings.TrimSpace(req.Model),
		Year:           req.Year,
		Hours:          req.Hours,
		YearTolerance:  settings.YearTolerance,
		HoursTolerance: settings.HoursTolerance,
		CostForMargin:  req.Cost,
	}
	if q.Model == "" {
		return q, fmt.Errorf("%w: model is required", pricing.ErrInvalidQuery)
	}
	if q.Year != nil && *q.Year <= 0 {
		return q, fmt.Errorf("%w: year must be positive", pricing.ErrInvalidQuery)
	}
	if q.Hours != nil && *q.Hours < 0 {
		return q, fmt.Errorf("%w: hours cannot be negative", pricing.ErrInvalidQuery)
	}
	if q.CostForMargin != nil && !q.CostForMargin.IsPositive() {
		return q, fmt.Errorf("%w: cost must be positive", pricing.ErrInvalidQuery)
	}
	if req.YearTolerance != nil {
		if *req.YearTolerance < 0 {
			return q, fmt.Errorf("%w: year_tolerance cannot be negative", pricing.ErrInvalidQuery)
		}
		q.YearTolerance = *req.YearTolerance
	}
	if req.HoursTolerance != nil {
		if *req.HoursTolerance < 0 {
			return q, fmt.Errorf("%w: hours_tolerance cannot be negative", pricing.ErrInvalidQuery)
		}
		q.HoursTolerance = *req.HoursTolerance
	}
	return q, nil
}

// Suggest returns the estimate for req, from cache when possible
func (s *PriceService) Suggest(ctx context.Context, req SuggestRequest) (*models.Estimate, error) {
	start := time.Now()

	q, err := s.Query(req)
	if err != nil {
		return nil, err
	}

	key := cache.EstimateKey(q)
	if cached, found, err := s.store.Get(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Estimate cache lookup failed")
	} else if found {
		s.observe(cached, true, start)
		return cached, nil
	}

	historical, live, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	result, err := s.estimator.Estimate(q, historical, live)
	if err != nil {
		return nil, err
	}
	est := result.Estimate

	for _, issue := range result.Issues {
		s.pricingLog.LogSkippedRecord(issue.Origin, issue.Index, issue.Model, issue.Reason)
	}
	metrics.RecordSkippedRecords("historical", est.Skipped.Historical)
	metrics.RecordSkippedRecords("live", est.Skipped.Live)

	if err := s.store.Set(ctx, key, est); err != nil {
		s.logger.WithError(err).Warn("Failed to cache estimate")
	}
	tracing.AddAnnotation(ctx, "use_case", string(est.UseCase))
	tracing.AddAnnotation(ctx, "confidence", string(est.Confidence))
	s.observe(est, false, start)
	return est, nil
}

// fetch loads historical and live records concurrently; the first error
// cancels the other query
func (s *PriceService) fetch(ctx context.Context, q models.QuerySpec) ([]models.HistoricalRecord, []models.LiveRecord, error) {
	params := s.estimator.Params()
	sources := s.settings[q.UseCase].HistoricalSources

	var (
		historical []models.HistoricalRecord
		live       []models.LiveRecord
	)
	g, gctx := errgroup.WithContext(ctx)

	if len(sources) > 0 {
		g.Go(func() error {
			err := tracing.Capture(gctx, "historical_fetch", func(ctx context.Context) error {
				recs, err := s.historical.FetchMatching(ctx, q, sources, params.HistoricalCap*fetchHeadroom)
				historical = recs
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to fetch historical records: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := tracing.Capture(gctx, "live_fetch", func(ctx context.Context) error {
			recs, err := s.live.FetchMatching(ctx, q, params.LiveCap*fetchHeadroom)
			live = recs
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to fetch live records: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return historical, live, nil
}

func (s *PriceService) observe(est *models.Estimate, cacheHit bool, start time.Time) {
	elapsed := time.Since(start)
	value := ""
	if est.Value != nil {
		value = est.Value.String()
	}
	s.pricingLog.LogEstimate(string(est.UseCase), est.Model, value, string(est.Confidence),
		est.SampleCounts.Historical, est.SampleCounts.Live, cacheHit, float64(elapsed.Microseconds())/1000)
	metrics.RecordEstimate(string(est.UseCase), string(est.Confidence), elapsed.Seconds())
}

// InvalidateCache drops every cached estimate
func (s *PriceService) InvalidateCache(ctx context.Context, reason string) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush estimate cache: %w", err)
	}
	s.pricingLog.LogCacheInvalidated(reason)
	return nil
}

// CacheStats reports estimate cache effectiveness
func (s *PriceService) CacheStats() cache.Stats {
	return s.store.Stats()
}
