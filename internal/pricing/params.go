// Package pricing estimates machinery prices from historical and live records.
//
// Everything in this package is pure: records are passed in already fetched,
// nothing is mutated and the clock is injected, so identical inputs always
// produce identical estimates.
package pricing

import (
	"fmt"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// RecencyPolicy decides the recency weight of records with no date and no year
type RecencyPolicy string

const (
	// RecencyNewest treats undated records as current (weight 1)
	RecencyNewest RecencyPolicy = "newest"
	// RecencyMedian gives undated records the median weight of the dated ones
	RecencyMedian RecencyPolicy = "median"
)

// BlendRatio is the share of the historical and live means in a blended value
type BlendRatio struct {
	Historical float64
	Live       float64
}

// Params tunes the estimator
type Params struct {
	HistoricalCap     int
	LiveCap           int
	HighConfidenceMin int // total samples for ALTA
	LiveMediumMin     int // live-only samples for MEDIA
	UnknownRecency    RecencyPolicy
	Ratios            map[models.UseCase]BlendRatio
}

// DefaultParams returns the production defaults
func DefaultParams() Params {
	return Params{
		HistoricalCap:     20,
		LiveCap:           10,
		HighConfidenceMin: 5,
		LiveMediumMin:     3,
		UnknownRecency:    RecencyMedian,
		Ratios: map[models.UseCase]BlendRatio{
			models.UseCaseAuction:   {Historical: 0.7, Live: 0.3},
			models.UseCasePVP:       {Historical: 0.6, Live: 0.4},
			models.UseCaseRepuestos: {Historical: 0.6, Live: 0.4},
		},
	}
}

// ratioFor returns the blend ratio of a use case
func (p Params) ratioFor(useCase models.UseCase) (BlendRatio, error) {
	ratio, ok := p.Ratios[useCase]
	if !ok {
		return BlendRatio{}, fmt.Errorf("%w: unknown use case %q", ErrInvalidQuery, useCase)
	}
	return ratio, nil
}
