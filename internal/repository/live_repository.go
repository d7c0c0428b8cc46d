package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/yourusername/machinery-pricer/internal/database"
	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
)

// PostgresLiveRepository implements LiveRepository for PostgreSQL
type PostgresLiveRepository struct {
	db *database.DB
}

// NewPostgresLiveRepository creates a new live price repository
func NewPostgresLiveRepository(db *database.DB) LiveRepository {
	return &PostgresLiveRepository{db: db}
}

// liveTarget maps a use case to the transactional table holding its prices:
// won auctions for auction, purchases for pvp and repuestos.
func liveTarget(useCase models.UseCase) (matchTarget, error) {
	switch useCase {
	case models.UseCaseAuction:
		return matchTarget{
			Table:      "auctions",
			Columns:    "id, model, year, hours, purchase_price AS price, created_at, status",
			ModelCol:   "model",
			DateExpr:   "created_at",
			Conditions: []string{fmt.Sprintf("status = '%s'", models.LiveStatusWon)},
		}, nil
	case models.UseCasePVP:
		return matchTarget{
			Table:    "purchases",
			Columns:  "id, model, year, hours, pvp_price AS price, created_at, status",
			ModelCol: "model",
			DateExpr: "created_at",
		}, nil
	case models.UseCaseRepuestos:
		return matchTarget{
			Table:    "purchases",
			Columns:  "id, model, year, hours, repuestos_cost AS price, created_at, status",
			ModelCol: "model",
			DateExpr: "created_at",
		}, nil
	default:
		return matchTarget{}, fmt.Errorf("%w: unknown use case %q", pricing.ErrInvalidQuery, useCase)
	}
}

// FetchMatching returns live records comparable to q for its use case
func (r *PostgresLiveRepository) FetchMatching(ctx context.Context, q models.QuerySpec, limit int) ([]models.LiveRecord, error) {
	target, err := liveTarget(q.UseCase)
	if err != nil {
		return nil, err
	}

	query, args := buildMatchQuery(target, q, limit)
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", target.Table, err)
	}
	defer rows.Close()

	var records []models.LiveRecord
	for rows.Next() {
		var (
			rec       models.LiveRecord
			price     pgtype.Numeric
			status    string
			relevance int
			refDate   pgtype.Timestamptz
		)
		if err := rows.Scan(
			&rec.ID, &rec.Model, &rec.Year, &rec.Hours, &price, &rec.CreatedAt, &status,
			&relevance, &refDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", target.Table, err)
		}
		rec.Price = fromNumeric(price)
		rec.Status = models.LiveStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", target.Table, err)
	}
	return records, nil
}
