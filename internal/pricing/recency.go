package pricing

import (
	"sort"
	"time"
)

// AgeInYears returns the whole years elapsed between ref and now.
// Future dates count as age 0.
func AgeInYears(ref, now time.Time) int {
	ref = ref.UTC()
	now = now.UTC()
	age := now.Year() - ref.Year()
	if now.Month() < ref.Month() || (now.Month() == ref.Month() && now.Day() < ref.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// RecencyWeight converts an age in years into a decay weight in (0, 1]
func RecencyWeight(ageYears int) float64 {
	if ageYears < 0 {
		ageYears = 0
	}
	return 1 / float64(ageYears+1)
}

// unknownWeight picks the recency weight for undated records given the
// weights of the dated records in the same set.
func unknownWeight(policy RecencyPolicy, known []float64) float64 {
	if policy != RecencyMedian || len(known) == 0 {
		return 1
	}

	sorted := append([]float64(nil), known...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
