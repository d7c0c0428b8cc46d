package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// SuggestionResponse is the JSON shape consumed by the pricing UI
type SuggestionResponse struct {
	UseCase         string          `json:"use_case"`
	Model           string          `json:"model"`
	SuggestedPrice  *float64        `json:"suggested_price"`
	Confidence      string          `json:"confidence"`
	ConfidenceScore int             `json:"confidence_score"`
	PriceRange      RangeResponse   `json:"price_range"`
	Sources         SourcesResponse `json:"sources"`
	SampleRecords   SamplesResponse `json:"sample_records"`
	Skipped         SkippedResponse `json:"skipped"`
	Margin          *MarginResponse `json:"margin,omitempty"`
	ComputedAt      string          `json:"computed_at"`
}

// RangeResponse is the min/max of the prices that were aggregated
type RangeResponse struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// SourcesResponse counts the samples used from each origin
type SourcesResponse struct {
	Historical int `json:"historical"`
	Current    int `json:"current"`
	Total      int `json:"total"`
}

// SamplesResponse lists the aggregated samples per origin
type SamplesResponse struct {
	Historical []SampleResponse `json:"historical"`
	Current    []SampleResponse `json:"current"`
}

// SampleResponse is one aggregated record
type SampleResponse struct {
	ID            string  `json:"id"`
	Model         string  `json:"model"`
	Year          *int    `json:"year,omitempty"`
	Hours         *int    `json:"hours,omitempty"`
	Price         float64 `json:"price"`
	ReferenceDate *string `json:"reference_date,omitempty"`
	AgeYears      *int    `json:"age_years,omitempty"`
	Relevance     int     `json:"relevance"`
	Weight        float64 `json:"weight"`
}

// SkippedResponse counts records dropped for unusable data
type SkippedResponse struct {
	Historical int `json:"historical"`
	Current    int `json:"current"`
}

// MarginResponse is the expected margin against a supplied cost
type MarginResponse struct {
	Cost    float64 `json:"cost"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

func optFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func toSamples(samples []models.Sample) []SampleResponse {
	out := make([]SampleResponse, 0, len(samples))
	for _, s := range samples {
		r := SampleResponse{
			ID:        s.RecordID.String(),
			Model:     s.Model,
			Year:      s.Year,
			Hours:     s.Hours,
			Price:     s.Price.InexactFloat64(),
			AgeYears:  s.AgeYears,
			Relevance: s.Relevance,
			Weight:    s.Weight,
		}
		if s.ReferenceDate != nil {
			d := s.ReferenceDate.Format("2006-01-02")
			r.ReferenceDate = &d
		}
		out = append(out, r)
	}
	return out
}

// NewSuggestionResponse maps an estimate onto the UI response shape
func NewSuggestionResponse(est *models.Estimate) SuggestionResponse {
	resp := SuggestionResponse{
		UseCase:         string(est.UseCase),
		Model:           est.Model,
		SuggestedPrice:  optFloat(est.Value),
		Confidence:      string(est.Confidence),
		ConfidenceScore: est.Confidence.Score(),
		PriceRange:      RangeResponse{Min: optFloat(est.Range.Min), Max: optFloat(est.Range.Max)},
		Sources: SourcesResponse{
			Historical: est.SampleCounts.Historical,
			Current:    est.SampleCounts.Live,
			Total:      est.SampleCounts.Total(),
		},
		SampleRecords: SamplesResponse{
			Historical: toSamples(est.HistoricalSamples),
			Current:    toSamples(est.LiveSamples),
		},
		Skipped:    SkippedResponse{Historical: est.Skipped.Historical, Current: est.Skipped.Live},
		ComputedAt: est.ComputedAt.UTC().Format(time.RFC3339),
	}
	if est.Margin != nil {
		resp.Margin = &MarginResponse{
			Cost:    est.Margin.Cost.InexactFloat64(),
			Amount:  est.Margin.Amount.InexactFloat64(),
			Percent: est.Margin.Percent.InexactFloat64(),
		}
	}
	return resp
}
