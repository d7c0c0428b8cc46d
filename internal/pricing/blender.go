package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// Blend merges the historical and live means. With both present the ratio
// applies; with one present it is returned unchanged; with none, nil.
func Blend(historical, live *decimal.Decimal, ratio BlendRatio) *decimal.Decimal {
	switch {
	case historical != nil && live != nil:
		v := historical.Mul(decimal.NewFromFloat(ratio.Historical)).
			Add(live.Mul(decimal.NewFromFloat(ratio.Live)))
		return &v
	case historical != nil:
		v := *historical
		return &v
	case live != nil:
		v := *live
		return &v
	default:
		return nil
	}
}

// ClassifyConfidence labels an estimate from its per-source sample counts
func ClassifyConfidence(historical, live int, p Params) models.Confidence {
	total := historical + live
	switch {
	case total == 0:
		return models.ConfidenceNone
	case live == 0:
		if historical >= p.HighConfidenceMin {
			return models.ConfidenceHigh
		}
		return models.ConfidenceMedium
	case historical == 0:
		if live >= p.LiveMediumMin {
			return models.ConfidenceMedium
		}
		return models.ConfidenceLow
	default:
		if total >= p.HighConfidenceMin {
			return models.ConfidenceHigh
		}
		return models.ConfidenceMedium
	}
}
