package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/machinery-pricer/internal/models"
)

var fixedNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestEstimator(mutators ...func(*Params)) *Estimator {
	p := DefaultParams()
	for _, m := range mutators {
		m(&p)
	}
	return NewEstimator(p, WithClock(func() time.Time { return fixedNow }))
}

func intPtr(v int) *int { return &v }

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func hist(model string, p int64, year int) models.HistoricalRecord {
	return models.HistoricalRecord{
		ID:     uuid.New(),
		Model:  model,
		Year:   intPtr(year),
		Price:  price(p),
		Source: models.HistoricalSourceAuction,
	}
}

func liveRec(model string, p int64, createdAt time.Time) models.LiveRecord {
	return models.LiveRecord{
		ID:        uuid.New(),
		Model:     model,
		Price:     price(p),
		CreatedAt: createdAt,
		Status:    models.LiveStatusWon,
	}
}

func auctionQuery(model string) models.QuerySpec {
	return models.QuerySpec{UseCase: models.UseCaseAuction, Model: model}
}

func TestEstimateSingleHistoricalRecord(t *testing.T) {
	e := newTestEstimator()

	res, err := e.Estimate(auctionQuery("ZX200-6"), []models.HistoricalRecord{hist("ZX200-6", 50000, 2019)}, nil)
	require.NoError(t, err)

	est := res.Estimate
	require.NotNil(t, est.Value)
	assert.True(t, est.Value.Equal(decimal.NewFromInt(50000)), "got %s", est.Value)
	assert.Equal(t, models.ConfidenceMedium, est.Confidence)
	assert.Equal(t, 1, est.SampleCounts.Historical)
	assert.Equal(t, 0, est.SampleCounts.Live)
	assert.Nil(t, est.LiveMean)
}

func TestEstimateNoData(t *testing.T) {
	e := newTestEstimator()

	res, err := e.Estimate(auctionQuery("ZX200-6"), nil, nil)
	require.NoError(t, err)

	est := res.Estimate
	assert.Nil(t, est.Value)
	assert.Equal(t, models.ConfidenceNone, est.Confidence)
	assert.Equal(t, 0, est.Confidence.Score())
	assert.Nil(t, est.Range.Min)
	assert.Nil(t, est.Range.Max)
}

func TestEstimateSameFamilyIncluded(t *testing.T) {
	e := newTestEstimator()

	res, err := e.Estimate(auctionQuery("ZX200-6"), []models.HistoricalRecord{hist("ZX200-3", 40000, 2015)}, nil)
	require.NoError(t, err)
	require.Len(t, res.Estimate.HistoricalSamples, 1)
	assert.Equal(t, RelevanceFamily, res.Estimate.HistoricalSamples[0].Relevance)
}

func TestEstimateBlendsSources(t *testing.T) {
	e := newTestEstimator()

	historical := []models.HistoricalRecord{
		hist("ZX200-6", 50000, 2022),
		hist("ZX200-6", 55000, 2022),
		hist("ZX200-6", 60000, 2022),
		hist("ZX200-6", 65000, 2022),
		hist("ZX200-6", 70000, 2022),
	}
	soldAt := fixedNow.AddDate(0, -2, 0)
	live := []models.LiveRecord{
		liveRec("ZX200-6", 63000, soldAt),
		liveRec("ZX200-6", 66000, soldAt),
		liveRec("ZX200-6", 69000, soldAt),
	}

	res, err := e.Estimate(auctionQuery("ZX200-6"), historical, live)
	require.NoError(t, err)

	est := res.Estimate
	require.NotNil(t, est.Value)
	assert.True(t, est.HistoricalMean.Equal(decimal.NewFromInt(60000)), "historical mean %s", est.HistoricalMean)
	assert.True(t, est.LiveMean.Equal(decimal.NewFromInt(66000)), "live mean %s", est.LiveMean)
	assert.True(t, est.Value.Equal(decimal.NewFromInt(61800)), "got %s", est.Value)
	assert.Equal(t, models.ConfidenceHigh, est.Confidence)
	assert.Equal(t, 8, est.SampleCounts.Total())
	assert.True(t, est.Range.Min.Equal(decimal.NewFromInt(50000)))
	assert.True(t, est.Range.Max.Equal(decimal.NewFromInt(70000)))
}

func TestEstimatePVPUsesOwnRatio(t *testing.T) {
	e := newTestEstimator()
	q := models.QuerySpec{UseCase: models.UseCasePVP, Model: "D6T"}

	res, err := e.Estimate(q,
		[]models.HistoricalRecord{hist("D6T", 100000, 2024)},
		[]models.LiveRecord{liveRec("D6T", 110000, fixedNow)},
	)
	require.NoError(t, err)
	assert.True(t, res.Estimate.Value.Equal(decimal.NewFromInt(104000)), "got %s", res.Estimate.Value)
}

func TestEstimateEqualWeightsIsArithmeticMean(t *testing.T) {
	e := newTestEstimator()
	historical := []models.HistoricalRecord{
		hist("PC210-10", 100, 2020),
		hist("PC210-10", 200, 2020),
		hist("PC210-10", 400, 2020),
	}

	res, err := e.Estimate(auctionQuery("PC210-10"), historical, nil)
	require.NoError(t, err)
	assert.True(t, res.Estimate.Value.Equal(decimal.RequireFromString("233.33")), "got %s", res.Estimate.Value)
}

func TestEstimateWeightsFavourRelevanceAndRecency(t *testing.T) {
	e := newTestEstimator()
	historical := []models.HistoricalRecord{
		hist("ZX200-6", 100000, 2026), // exact, current: weight 1
		hist("ZX200-3", 10000, 2016),  // family, old: weight 0.85/11
	}

	res, err := e.Estimate(auctionQuery("ZX200-6"), historical, nil)
	require.NoError(t, err)

	est := res.Estimate
	require.Len(t, est.HistoricalSamples, 2)
	assert.Equal(t, RelevanceExact, est.HistoricalSamples[0].Relevance)
	assert.True(t, est.Value.GreaterThan(decimal.NewFromInt(90000)), "got %s", est.Value)
	assert.True(t, est.Value.LessThan(decimal.NewFromInt(100000)), "got %s", est.Value)
}

func TestEstimateValueWithinRange(t *testing.T) {
	e := newTestEstimator()
	historical := []models.HistoricalRecord{
		hist("ZX200-6", 48250, 2018),
		hist("ZX200-5", 39999, 2012),
		hist("ZX200", 61000, 2023),
		hist("EX-ZX200", 70100, 2025),
	}
	live := []models.LiveRecord{
		liveRec("ZX200-6", 52000, fixedNow.AddDate(-1, 0, 0)),
		liveRec("ZX200LC-6", 58500, fixedNow.AddDate(-3, 0, 0)),
	}

	res, err := e.Estimate(auctionQuery("ZX200-6"), historical, live)
	require.NoError(t, err)

	est := res.Estimate
	require.NotNil(t, est.Value)
	assert.True(t, est.Value.GreaterThanOrEqual(*est.Range.Min))
	assert.True(t, est.Value.LessThanOrEqual(*est.Range.Max))
}

func TestEstimateIsIdempotent(t *testing.T) {
	e := newTestEstimator()
	historical := []models.HistoricalRecord{
		hist("ZX200-6", 48250, 2018),
		hist("ZX200-3", 39999, 2012),
	}
	live := []models.LiveRecord{liveRec("ZX200-6", 52000, fixedNow.AddDate(-1, 0, 0))}

	first, err := e.Estimate(auctionQuery("ZX200-6"), historical, live)
	require.NoError(t, err)
	second, err := e.Estimate(auctionQuery("ZX200-6"), historical, live)
	require.NoError(t, err)

	assert.Equal(t, first.Estimate, second.Estimate)
	assert.Equal(t, int64(48250), historical[0].Price.Decimal.IntPart(), "inputs must not be mutated")
}

func TestEstimateSkipsInvalidPrices(t *testing.T) {
	e := newTestEstimator()
	missing := hist("ZX200-6", 0, 2020)
	missing.Price = decimal.NullDecimal{}
	negative := hist("ZX200-6", -5, 2020)

	res, err := e.Estimate(auctionQuery("ZX200-6"),
		[]models.HistoricalRecord{missing, negative, hist("ZX200-6", 50000, 2020)},
		[]models.LiveRecord{{Model: "ZX200-6", CreatedAt: fixedNow}},
	)
	require.NoError(t, err)

	est := res.Estimate
	assert.Equal(t, 1, est.SampleCounts.Historical)
	assert.Equal(t, 2, est.Skipped.Historical)
	assert.Equal(t, 1, est.Skipped.Live)
	require.Len(t, res.Issues, 3)
	for _, issue := range res.Issues {
		assert.True(t, errors.Is(issue, ErrInvalidInput))
	}
	assert.True(t, est.Value.Equal(decimal.NewFromInt(50000)))
}

func TestEstimateUnmatchedRecordsAreIgnored(t *testing.T) {
	e := newTestEstimator()
	broken := hist("PC210-10", 0, 2020)
	broken.Price = decimal.NullDecimal{}

	res, err := e.Estimate(auctionQuery("ZX200-6"), []models.HistoricalRecord{broken}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Nil(t, res.Estimate.Value)
}

func TestEstimateAppliesTolerances(t *testing.T) {
	e := newTestEstimator()
	q := auctionQuery("ZX200-6")
	q.Year = intPtr(2018)
	q.YearTolerance = 2
	q.Hours = intPtr(8000)
	q.HoursTolerance = 1000

	inside := hist("ZX200-6", 50000, 2019)
	inside.Hours = intPtr(8500)
	tooOld := hist("ZX200-6", 20000, 2010)
	tooWorn := hist("ZX200-6", 30000, 2018)
	tooWorn.Hours = intPtr(15000)
	undated := models.HistoricalRecord{Model: "ZX200-6", Price: price(52000)}

	res, err := e.Estimate(q, []models.HistoricalRecord{inside, tooOld, tooWorn, undated}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Estimate.SampleCounts.Historical)
}

func TestEstimateCapsSamples(t *testing.T) {
	e := newTestEstimator(func(p *Params) {
		p.HistoricalCap = 3
		p.LiveCap = 1
	})

	var historical []models.HistoricalRecord
	for i := 0; i < 6; i++ {
		historical = append(historical, hist("ZX200-3", 40000, 2010+i))
	}
	historical = append(historical, hist("ZX200-6", 60000, 2000))
	live := []models.LiveRecord{
		liveRec("ZX200-6", 61000, fixedNow.AddDate(-4, 0, 0)),
		liveRec("ZX200-6", 62000, fixedNow),
	}

	res, err := e.Estimate(auctionQuery("ZX200-6"), historical, live)
	require.NoError(t, err)

	est := res.Estimate
	require.Len(t, est.HistoricalSamples, 3)
	assert.Equal(t, RelevanceExact, est.HistoricalSamples[0].Relevance)
	assert.Equal(t, 2015, *est.HistoricalSamples[1].Year)
	require.Len(t, est.LiveSamples, 1)
	assert.True(t, est.LiveSamples[0].Price.Equal(decimal.NewFromInt(62000)))
}

func TestEstimateUnknownRecencyPolicy(t *testing.T) {
	undated := models.HistoricalRecord{ID: uuid.New(), Model: "ZX200-6", Price: price(90000)}
	old := hist("ZX200-6", 30000, 2023) // age 3, weight 0.25

	newest := newTestEstimator(func(p *Params) { p.UnknownRecency = RecencyNewest })
	res, err := newest.Estimate(auctionQuery("ZX200-6"), []models.HistoricalRecord{undated, old}, nil)
	require.NoError(t, err)
	assert.True(t, res.Estimate.Value.Equal(decimal.NewFromInt(78000)), "got %s", res.Estimate.Value)

	median := newTestEstimator(func(p *Params) { p.UnknownRecency = RecencyMedian })
	res, err = median.Estimate(auctionQuery("ZX200-6"), []models.HistoricalRecord{undated, old}, nil)
	require.NoError(t, err)
	assert.True(t, res.Estimate.Value.Equal(decimal.NewFromInt(60000)), "got %s", res.Estimate.Value)
}

func TestEstimateMargin(t *testing.T) {
	e := newTestEstimator()
	q := models.QuerySpec{UseCase: models.UseCasePVP, Model: "D6T"}
	cost := decimal.NewFromInt(80000)
	q.CostForMargin = &cost

	res, err := e.Estimate(q, []models.HistoricalRecord{hist("D6T", 100000, 2026)}, nil)
	require.NoError(t, err)

	m := res.Estimate.Margin
	require.NotNil(t, m)
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, m.Percent.Equal(decimal.NewFromInt(25)))

	res, err = e.Estimate(q, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Estimate.Margin)
}

func TestEstimateInvalidQuery(t *testing.T) {
	e := newTestEstimator()

	_, err := e.Estimate(auctionQuery("   "), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = e.Estimate(models.QuerySpec{UseCase: "leasing", Model: "D6T"}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestWeightedMeanZeroWeights(t *testing.T) {
	assert.Nil(t, WeightedMean(nil))
	assert.Nil(t, WeightedMean([]models.Sample{{Price: decimal.NewFromInt(10), Weight: 0}}))
}
