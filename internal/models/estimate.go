package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Confidence labels how much data backed an estimate
type Confidence string

const (
	ConfidenceNone   Confidence = "SIN_DATOS"
	ConfidenceLow    Confidence = "BAJA"
	ConfidenceMedium Confidence = "MEDIA"
	ConfidenceHigh   Confidence = "ALTA"
)

// Rank orders confidence levels: SIN_DATOS < BAJA < MEDIA < ALTA
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// Score is the numeric confidence shown alongside the label
func (c Confidence) Score() int {
	switch c {
	case ConfidenceLow:
		return 35
	case ConfidenceMedium:
		return 65
	case ConfidenceHigh:
		return 90
	default:
		return 0
	}
}

// PriceRange holds the extremes of the individual prices behind an estimate
type PriceRange struct {
	Min *decimal.Decimal `json:"min"`
	Max *decimal.Decimal `json:"max"`
}

// SampleCounts counts records per source
type SampleCounts struct {
	Historical int `json:"historical"`
	Live       int `json:"live"`
}

// Total returns the combined count
func (s SampleCounts) Total() int {
	return s.Historical + s.Live
}

// Sample is a matched record together with the weights it contributed
type Sample struct {
	RecordID      uuid.UUID       `json:"id"`
	Model         string          `json:"model"`
	Year          *int            `json:"year,omitempty"`
	Hours         *int            `json:"hours,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ReferenceDate *time.Time      `json:"reference_date,omitempty"`
	AgeYears      *int            `json:"age_years,omitempty"`
	Relevance     int             `json:"relevance"`
	RecencyWeight float64         `json:"recency_weight"`
	Weight        float64         `json:"weight"`
	Origin        string          `json:"origin"`
}

// Margin compares an estimate with a known cost
type Margin struct {
	Cost    decimal.Decimal `json:"cost"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// Estimate is the computed, never persisted, price suggestion
type Estimate struct {
	UseCase           UseCase          `json:"use_case"`
	Model             string           `json:"model"`
	Value             *decimal.Decimal `json:"value"`
	Confidence        Confidence       `json:"confidence"`
	Range             PriceRange       `json:"range"`
	SampleCounts      SampleCounts     `json:"sample_counts"`
	Skipped           SampleCounts     `json:"skipped"`
	HistoricalMean    *decimal.Decimal `json:"historical_mean,omitempty"`
	LiveMean          *decimal.Decimal `json:"live_mean,omitempty"`
	HistoricalSamples []Sample         `json:"historical_samples"`
	LiveSamples       []Sample         `json:"live_samples"`
	Margin            *Margin          `json:"margin,omitempty"`
	ComputedAt        time.Time        `json:"computed_at"`
}

// HasValue reports whether the estimate produced a price
func (e *Estimate) HasValue() bool {
	return e.Value != nil
}

// Clone returns a deep copy of e
func (e *Estimate) Clone() *Estimate {
	if e == nil {
		return nil
	}
	c := *e
	c.Value = cloneDecimal(e.Value)
	c.Range = PriceRange{Min: cloneDecimal(e.Range.Min), Max: cloneDecimal(e.Range.Max)}
	c.HistoricalMean = cloneDecimal(e.HistoricalMean)
	c.LiveMean = cloneDecimal(e.LiveMean)
	c.HistoricalSamples = cloneSamples(e.HistoricalSamples)
	c.LiveSamples = cloneSamples(e.LiveSamples)
	if e.Margin != nil {
		m := *e.Margin
		c.Margin = &m
	}
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneSamples(in []Sample) []Sample {
	if in == nil {
		return nil
	}
	out := make([]Sample, len(in))
	for i, s := range in {
		s.Year = cloneInt(s.Year)
		s.Hours = cloneInt(s.Hours)
		s.AgeYears = cloneInt(s.AgeYears)
		if s.ReferenceDate != nil {
			ref := *s.ReferenceDate
			s.ReferenceDate = &ref
		}
		out[i] = s
	}
	return out
}
