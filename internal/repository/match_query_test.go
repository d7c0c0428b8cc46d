package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
)

func intPtr(v int) *int { return &v }

func TestBuildMatchQueryWithoutTolerances(t *testing.T) {
	q := models.QuerySpec{UseCase: models.UseCaseAuction, Model: "  ZX200-6 "}

	sql, args := buildMatchQuery(historicalTarget([]models.HistoricalSource{models.HistoricalSourceAuction}), q, 20)

	require.Len(t, args, 3)
	assert.Equal(t, "ZX200-6", args[0])
	assert.Equal(t, "ZX200", args[1])
	assert.Equal(t, 20, args[2])
	assert.Contains(t, sql, "source IN ('auction')")
	assert.Contains(t, sql, "LIMIT $3")
	assert.NotContains(t, sql, "year BETWEEN")
	assert.NotContains(t, sql, "hours BETWEEN")
}

func TestBuildMatchQueryAddsToleranceWindows(t *testing.T) {
	q := models.QuerySpec{
		UseCase:        models.UseCasePVP,
		Model:          "320D",
		Year:           intPtr(2018),
		Hours:          intPtr(5000),
		YearTolerance:  2,
		HoursTolerance: 2000,
	}

	sql, args := buildMatchQuery(historicalTarget([]models.HistoricalSource{models.HistoricalSourcePVP}), q, 0)

	assert.Equal(t, []interface{}{"320D", "320D", 2016, 2020, 3000, 7000}, args)
	assert.Contains(t, sql, "(year IS NULL OR year BETWEEN $3 AND $4)")
	assert.Contains(t, sql, "(hours IS NULL OR hours BETWEEN $5 AND $6)")
	assert.NotContains(t, sql, "LIMIT")
}

func TestBuildMatchQueryRanksUsablePricesFirst(t *testing.T) {
	sql, _ := buildMatchQuery(historicalTarget([]models.HistoricalSource{models.HistoricalSourceAuction}), models.QuerySpec{Model: "ZX200"}, 10)

	order := sql[strings.Index(sql, "ORDER BY"):]
	assert.True(t, strings.Index(order, "price IS NULL") < strings.Index(order, "relevance DESC"))
	assert.True(t, strings.Index(order, "relevance DESC") < strings.Index(order, "reference_date DESC"))
}

func TestLiveTargetPerUseCase(t *testing.T) {
	tests := []struct {
		useCase models.UseCase
		table   string
		price   string
		status  bool
	}{
		{models.UseCaseAuction, "auctions", "purchase_price AS price", true},
		{models.UseCasePVP, "purchases", "pvp_price AS price", false},
		{models.UseCaseRepuestos, "purchases", "repuestos_cost AS price", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.useCase), func(t *testing.T) {
			target, err := liveTarget(tt.useCase)
			require.NoError(t, err)
			assert.Equal(t, tt.table, target.Table)
			assert.Contains(t, target.Columns, tt.price)

			sql, _ := buildMatchQuery(target, models.QuerySpec{UseCase: tt.useCase, Model: "ZX200"}, 10)
			assert.Equal(t, tt.status, strings.Contains(sql, "status = 'GANADA'"))
		})
	}
}

func TestLiveTargetRejectsUnknownUseCase(t *testing.T) {
	_, err := liveTarget("leasing")
	assert.ErrorIs(t, err, pricing.ErrInvalidQuery)
}
