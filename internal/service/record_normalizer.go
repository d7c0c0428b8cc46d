package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/machinery-pricer/internal/datasource"
	"github.com/yourusername/machinery-pricer/internal/models"
)

// normalizeRow converts a parsed spreadsheet row into a historical record
// belonging to batchID
func normalizeRow(row datasource.RecordRow, batchID uuid.UUID, now time.Time) models.HistoricalRecord {
	rec := models.HistoricalRecord{
		ID:            uuid.New(),
		Model:         strings.TrimSpace(row.Model),
		Year:          row.Year,
		Hours:         row.Hours,
		RecordDate:    row.Date,
		Source:        models.HistoricalSource(datasource.NormalizeSource(row.Source)),
		ImportBatchID: batchID,
		CreatedAt:     now,
	}
	if row.Brand != nil {
		if brand := strings.TrimSpace(*row.Brand); brand != "" {
			rec.Brand = &brand
		}
	}
	if row.Price != nil {
		rec.Price = decimal.NewNullDecimal(row.Price.Round(2))
	}
	return rec
}
