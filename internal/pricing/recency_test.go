package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeInYears(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"same day", now, 0},
		{"before anniversary", time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), 0},
		{"on anniversary", time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), 1},
		{"year treated as january first", time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), 7},
		{"future clamps to zero", time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeInYears(tt.ref, now))
		})
	}
}

func TestRecencyWeight(t *testing.T) {
	assert.Equal(t, 1.0, RecencyWeight(0))
	assert.Equal(t, 0.5, RecencyWeight(1))
	assert.InDelta(t, 0.1, RecencyWeight(9), 1e-12)
	assert.Equal(t, 1.0, RecencyWeight(-3))

	prev := RecencyWeight(0)
	for age := 1; age < 30; age++ {
		w := RecencyWeight(age)
		assert.Less(t, w, prev)
		assert.Greater(t, w, 0.0)
		prev = w
	}
}

func TestUnknownWeight(t *testing.T) {
	assert.Equal(t, 1.0, unknownWeight(RecencyNewest, []float64{0.2, 0.5}))
	assert.Equal(t, 1.0, unknownWeight(RecencyMedian, nil))
	assert.Equal(t, 0.5, unknownWeight(RecencyMedian, []float64{1, 0.25, 0.5}))
	assert.InDelta(t, 0.375, unknownWeight(RecencyMedian, []float64{0.25, 0.5}), 1e-12)
}
