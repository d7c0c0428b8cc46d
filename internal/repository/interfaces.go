package repository

import (
	"context"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// HistoricalRepository defines the interface for imported historical prices
type HistoricalRepository interface {
	FetchMatching(ctx context.Context, q models.QuerySpec, sources []models.HistoricalSource, limit int) ([]models.HistoricalRecord, error)
	InsertBatch(ctx context.Context, records []models.HistoricalRecord) (int64, error)
	DeleteAll(ctx context.Context, source models.HistoricalSource) (int64, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) ([]models.HistoricalStats, error)
}

// LiveRepository defines the interface for prices read from the
// transactional auction and purchase tables
type LiveRepository interface {
	FetchMatching(ctx context.Context, q models.QuerySpec, limit int) ([]models.LiveRecord, error)
}
