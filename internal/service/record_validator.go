package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// MinMachineYear is the oldest manufacturing year accepted on import
const MinMachineYear = 1950

// RecordValidator validates historical records before they are stored
type RecordValidator struct {
	now func() time.Time
}

// NewRecordValidator creates a new record validator
func NewRecordValidator(now func() time.Time) *RecordValidator {
	if now == nil {
		now = time.Now
	}
	return &RecordValidator{now: now}
}

// Validate returns every problem found with rec; nil means it can be stored
func (v *RecordValidator) Validate(rec *models.HistoricalRecord) []string {
	var problems []string
	now := v.now()

	if strings.TrimSpace(rec.Model) == "" {
		problems = append(problems, "model is required")
	}

	switch {
	case !rec.Price.Valid:
		problems = append(problems, "price is required")
	case !rec.Price.Decimal.IsPositive():
		problems = append(problems, fmt.Sprintf("price must be positive, got %s", rec.Price.Decimal))
	}

	if rec.Year != nil {
		maxYear := now.Year() + 1
		if *rec.Year < MinMachineYear || *rec.Year > maxYear {
			problems = append(problems, fmt.Sprintf("year out of range (%d-%d), got %d", MinMachineYear, maxYear, *rec.Year))
		}
	}

	if rec.Hours != nil && *rec.Hours < 0 {
		problems = append(problems, fmt.Sprintf("hours cannot be negative, got %d", *rec.Hours))
	}

	if rec.RecordDate != nil && rec.RecordDate.After(now.Add(24*time.Hour)) {
		problems = append(problems, fmt.Sprintf("date %s is in the future", rec.RecordDate.Format("2006-01-02")))
	}

	if !rec.Source.Valid() {
		problems = append(problems, fmt.Sprintf("source must be auction or pvp, got %q", rec.Source))
	}

	return problems
}
