package datasource

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"60000", "60000", false},
		{"60.000", "60000", false},
		{"60,000", "60000", false},
		{"1.234,56", "1234.56", false},
		{"1,234.56", "1234.56", false},
		{"1.234.567", "1234567", false},
		{"45000,5", "45000.5", false},
		{"45000.5", "45000.5", false},
		{"€ 52.300", "52300", false},
		{"-10", "-10", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseNumber(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("4.500")
	require.NoError(t, err)
	assert.Equal(t, 4500, v)

	_, err = ParseInt("12,5")
	assert.Error(t, err)

	v, err = ParseInt("2147483647")
	require.NoError(t, err)
	assert.Equal(t, 2147483647, v)

	for _, raw := range []string{"3000000000", "2.147.483.648", "-2147483649", "99999999999999999999999"} {
		_, err = ParseInt(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2023-03-15", "15/03/2023", "15-03-2023", "45000", "2023-03-15T10:30:00Z"} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseDate(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("next tuesday")
	assert.Error(t, err)
}

func TestNormalizeSource(t *testing.T) {
	assert.Equal(t, "auction", NormalizeSource(" Subasta "))
	assert.Equal(t, "pvp", NormalizeSource("PVP"))
	assert.Equal(t, "leasing", NormalizeSource("Leasing"))
}
