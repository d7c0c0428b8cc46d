package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// CombinedWeight merges a relevance score (0-100) and a recency weight
func CombinedWeight(relevance int, recency float64) float64 {
	return float64(relevance) / 100 * recency
}

// WeightedMean returns sum(price*weight) / sum(weight) over the samples,
// or nil when the weight sum is zero.
func WeightedMean(samples []models.Sample) *decimal.Decimal {
	numerator := decimal.Zero
	denominator := decimal.Zero
	for _, s := range samples {
		if s.Weight <= 0 {
			continue
		}
		w := decimal.NewFromFloat(s.Weight)
		numerator = numerator.Add(s.Price.Mul(w))
		denominator = denominator.Add(w)
	}
	if denominator.IsZero() {
		return nil
	}
	mean := numerator.Div(denominator)
	return &mean
}

// priceRange returns the literal min and max prices across sample sets
func priceRange(sets ...[]models.Sample) models.PriceRange {
	var r models.PriceRange
	for _, set := range sets {
		for i := range set {
			p := set[i].Price
			if r.Min == nil || p.LessThan(*r.Min) {
				lo := p
				r.Min = &lo
			}
			if r.Max == nil || p.GreaterThan(*r.Max) {
				hi := p
				r.Max = &hi
			}
		}
	}
	return r
}
