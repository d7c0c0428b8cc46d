package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/machinery-pricer/internal/models"
)

const (
	originHistorical = "historical"
	originLive       = "live"
	currencyPlaces   = 2
)

// Estimator computes price estimates. It holds no mutable state and is
// safe for concurrent use.
type Estimator struct {
	params Params
	now    func() time.Time
}

// Option configures an Estimator
type Option func(*Estimator)

// WithClock overrides the clock used to age records
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		e.now = now
	}
}

// NewEstimator creates an estimator with the given parameters
func NewEstimator(params Params, opts ...Option) *Estimator {
	e := &Estimator{params: params, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the estimator parameters
func (e *Estimator) Params() Params {
	return e.params
}

// Result is an estimate plus the records skipped while computing it
type Result struct {
	Estimate *models.Estimate
	Issues   []*InvalidInputError
}

// Estimate aggregates the fetched records into a single estimate. The
// model filter and tolerance filters are re-applied, so callers may pass
// unfiltered record sets.
func (e *Estimator) Estimate(q models.QuerySpec, historical []models.HistoricalRecord, live []models.LiveRecord) (*Result, error) {
	q = q.Normalized()
	if q.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidQuery)
	}
	ratio, err := e.params.ratioFor(q.UseCase)
	if err != nil {
		return nil, err
	}

	now := e.now()
	result := &Result{}

	histCandidates := make([]candidate, 0, len(historical))
	for i := range historical {
		r := &historical[i]
		histCandidates = append(histCandidates, candidate{
			index: i, id: r.ID, model: r.Model, year: r.Year, hours: r.Hours,
			price: r.Price, ref: r.ReferenceDate(),
		})
	}
	liveCandidates := make([]candidate, 0, len(live))
	for i := range live {
		r := &live[i]
		liveCandidates = append(liveCandidates, candidate{
			index: i, id: r.ID, model: r.Model, year: r.Year, hours: r.Hours,
			price: r.Price, ref: r.ReferenceDate(),
		})
	}

	histSamples, histIssues := e.collect(q, originHistorical, histCandidates, e.params.HistoricalCap, now)
	liveSamples, liveIssues := e.collect(q, originLive, liveCandidates, e.params.LiveCap, now)
	result.Issues = append(histIssues, liveIssues...)

	est := &models.Estimate{
		UseCase:           q.UseCase,
		Model:             q.Model,
		SampleCounts:      models.SampleCounts{Historical: len(histSamples), Live: len(liveSamples)},
		Skipped:           models.SampleCounts{Historical: len(histIssues), Live: len(liveIssues)},
		HistoricalSamples: histSamples,
		LiveSamples:       liveSamples,
		Range:             priceRange(histSamples, liveSamples),
		ComputedAt:        now,
	}

	histMean := WeightedMean(histSamples)
	liveMean := WeightedMean(liveSamples)
	est.HistoricalMean = roundCurrency(histMean)
	est.LiveMean = roundCurrency(liveMean)

	if value := Blend(histMean, liveMean, ratio); value != nil {
		v := clamp(value.Round(currencyPlaces), est.Range)
		est.Value = &v
	}
	est.Confidence = ClassifyConfidence(est.SampleCounts.Historical, est.SampleCounts.Live, e.params)
	est.Margin = margin(est.Value, q.CostForMargin)

	result.Estimate = est
	return result, nil
}

type candidate struct {
	index int
	id    uuid.UUID
	model string
	year  *int
	hours *int
	price decimal.NullDecimal
	ref   *time.Time
}

// collect filters, validates, weights, ranks and caps one record source
func (e *Estimator) collect(q models.QuerySpec, origin string, in []candidate, limit int, now time.Time) ([]models.Sample, []*InvalidInputError) {
	var issues []*InvalidInputError
	samples := make([]models.Sample, 0, len(in))
	var known []float64

	for _, c := range in {
		relevance, ok := MatchModel(q.Model, c.model)
		if !ok || !q.AcceptsYear(c.year) || !q.AcceptsHours(c.hours) {
			continue
		}
		if reason := invalidPrice(c.price); reason != "" {
			issues = append(issues, &InvalidInputError{Origin: origin, Index: c.index, Model: c.model, Reason: reason})
			continue
		}

		s := models.Sample{
			RecordID:      c.id,
			Model:         c.model,
			Year:          c.year,
			Hours:         c.hours,
			Price:         c.price.Decimal,
			ReferenceDate: c.ref,
			Relevance:     relevance,
			Origin:        origin,
		}
		if c.ref != nil {
			age := AgeInYears(*c.ref, now)
			s.AgeYears = &age
			s.RecencyWeight = RecencyWeight(age)
			known = append(known, s.RecencyWeight)
		}
		samples = append(samples, s)
	}

	fallback := unknownWeight(e.params.UnknownRecency, known)
	for i := range samples {
		if samples[i].AgeYears == nil {
			samples[i].RecencyWeight = fallback
		}
		samples[i].Weight = CombinedWeight(samples[i].Relevance, samples[i].RecencyWeight)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Relevance != samples[j].Relevance {
			return samples[i].Relevance > samples[j].Relevance
		}
		return samples[i].RecencyWeight > samples[j].RecencyWeight
	})
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	return samples, issues
}

func invalidPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "price is missing"
	}
	if !p.Decimal.IsPositive() {
		return fmt.Sprintf("price must be positive, got %s", p.Decimal.String())
	}
	return ""
}

func roundCurrency(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(currencyPlaces)
	return &r
}

// clamp keeps a rounded value inside the literal price range
func clamp(v decimal.Decimal, r models.PriceRange) decimal.Decimal {
	if r.Min != nil && v.LessThan(*r.Min) {
		return *r.Min
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return *r.Max
	}
	return v
}

func margin(value, cost *decimal.Decimal) *models.Margin {
	if value == nil || cost == nil || !cost.IsPositive() {
		return nil
	}
	amount := value.Sub(*cost)
	return &models.Margin{
		Cost:    *cost,
		Amount:  amount,
		Percent: amount.Div(*cost).Mul(decimal.NewFromInt(100)).Round(currencyPlaces),
	}
}
