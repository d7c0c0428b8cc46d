package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UseCase selects which prices are being estimated
type UseCase string

const (
	UseCaseAuction   UseCase = "auction"
	UseCasePVP       UseCase = "pvp"
	UseCaseRepuestos UseCase = "repuestos"
)

// UseCases lists every supported use case
var UseCases = []UseCase{UseCaseAuction, UseCasePVP, UseCaseRepuestos}

// Valid reports whether u is a supported use case
func (u UseCase) Valid() bool {
	for _, known := range UseCases {
		if u == known {
			return true
		}
	}
	return false
}

// QuerySpec describes one price estimate request.
// A tolerance of zero disables the corresponding filter.
type QuerySpec struct {
	UseCase        UseCase          `json:"use_case"`
	Model          string           `json:"model"`
	Year           *int             `json:"year,omitempty"`
	Hours          *int             `json:"hours,omitempty"`
	YearTolerance  int              `json:"year_tolerance"`
	HoursTolerance int              `json:"hours_tolerance"`
	CostForMargin  *decimal.Decimal `json:"cost_for_margin,omitempty"`
}

// Normalized returns a copy with the model trimmed
func (q QuerySpec) Normalized() QuerySpec {
	q.Model = strings.TrimSpace(q.Model)
	return q
}

// AcceptsYear reports whether a record year passes the year tolerance.
// Records without a year are always accepted.
func (q QuerySpec) AcceptsYear(year *int) bool {
	return withinTolerance(q.Year, year, q.YearTolerance)
}

// AcceptsHours reports whether a record's hours pass the hours tolerance
func (q QuerySpec) AcceptsHours(hours *int) bool {
	return withinTolerance(q.Hours, hours, q.HoursTolerance)
}

// YearBounds returns the inclusive year window, or nils when unfiltered
func (q QuerySpec) YearBounds() (*int, *int) {
	return bounds(q.Year, q.YearTolerance)
}

// HoursBounds returns the inclusive hours window, or nils when unfiltered
func (q QuerySpec) HoursBounds() (*int, *int) {
	return bounds(q.Hours, q.HoursTolerance)
}

func withinTolerance(want, got *int, tolerance int) bool {
	if want == nil || got == nil || tolerance <= 0 {
		return true
	}
	diff := *got - *want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func bounds(want *int, tolerance int) (*int, *int) {
	if want == nil || tolerance <= 0 {
		return nil, nil
	}
	lo, hi := *want-tolerance, *want+tolerance
	return &lo, &hi
}
