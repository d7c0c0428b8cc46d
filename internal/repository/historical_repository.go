package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/yourusername/machinery-pricer/internal/database"
	"github.com/yourusername/machinery-pricer/internal/models"
)

const historicalDateExpr = "COALESCE(record_date, make_date(year, 1, 1))"

// PostgresHistoricalRepository implements HistoricalRepository for PostgreSQL
type PostgresHistoricalRepository struct {
	db *database.DB
}

// NewPostgresHistoricalRepository creates a new historical repository
func NewPostgresHistoricalRepository(db *database.DB) HistoricalRepository {
	return &PostgresHistoricalRepository{db: db}
}

func historicalTarget(sources []models.HistoricalSource) matchTarget {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = fmt.Sprintf("'%s'", s)
	}
	return matchTarget{
		Table:      "historical_records",
		Columns:    "id, model, brand, year, hours, price, record_date, source, import_batch_id, created_at",
		ModelCol:   "model",
		DateExpr:   historicalDateExpr,
		Conditions: []string{fmt.Sprintf("source IN (%s)", strings.Join(names, ", "))},
	}
}

// FetchMatching returns historical records comparable to q from the given
// sources, best matches first. No sources means no records.
func (r *PostgresHistoricalRepository) FetchMatching(ctx context.Context, q models.QuerySpec, sources []models.HistoricalSource, limit int) ([]models.HistoricalRecord, error) {
	for _, s := range sources {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %q", models.ErrInvalidSource, s)
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}

	query, args := buildMatchQuery(historicalTarget(sources), q, limit)
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical records: %w", err)
	}
	defer rows.Close()

	var records []models.HistoricalRecord
	for rows.Next() {
		var (
			rec       models.HistoricalRecord
			price     pgtype.Numeric
			source    string
			relevance int
			refDate   pgtype.Date
		)
		if err := rows.Scan(
			&rec.ID, &rec.Model, &rec.Brand, &rec.Year, &rec.Hours, &price,
			&rec.RecordDate, &source, &rec.ImportBatchID, &rec.CreatedAt,
			&relevance, &refDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan historical record: %w", err)
		}
		rec.Price = fromNumeric(price)
		rec.Source = models.HistoricalSource(source)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical records: %w", err)
	}
	return records, nil
}

// InsertBatch inserts records with COPY and returns the number written
func (r *PostgresHistoricalRepository) InsertBatch(ctx context.Context, records []models.HistoricalRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	columns := []string{"id", "model", "brand", "year", "hours", "price", "record_date", "source", "import_batch_id", "created_at"}
	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		price, err := toNumeric(rec.Price)
		if err != nil {
			return 0, fmt.Errorf("record %d: invalid price: %w", i, err)
		}
		rows[i] = []interface{}{
			rec.ID, rec.Model, rec.Brand, rec.Year, rec.Hours, price,
			rec.RecordDate, string(rec.Source), rec.ImportBatchID, rec.CreatedAt,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"historical_records"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("failed to batch insert historical records: %w", models.ErrDuplicateKey)
		}
		return 0, fmt.Errorf("failed to batch insert historical records: %w", err)
	}
	if count != int64(len(records)) {
		return count, fmt.Errorf("inserted %d rows, expected %d", count, len(records))
	}
	return count, nil
}

// DeleteAll removes every record of source, or all records when source is empty
func (r *PostgresHistoricalRepository) DeleteAll(ctx context.Context, source models.HistoricalSource) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	switch {
	case source == "":
		tag, err = r.db.GetPool().Exec(ctx, "DELETE FROM historical_records")
	case source.Valid():
		tag, err = r.db.GetPool().Exec(ctx, "DELETE FROM historical_records WHERE source = $1", string(source))
	default:
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidSource, source)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete historical records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of historical records
func (r *PostgresHistoricalRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetPool().QueryRow(ctx, "SELECT COUNT(*) FROM historical_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count historical records: %w", err)
	}
	return n, nil
}

// Stats returns record counts and date coverage per source
func (r *PostgresHistoricalRepository) Stats(ctx context.Context) ([]models.HistoricalStats, error) {
	query := `
		SELECT source, COUNT(*),
		       MIN(` + historicalDateExpr + `),
		       MAX(` + historicalDateExpr + `),
		       MAX(created_at)
		FROM historical_records
		GROUP BY source
		ORDER BY source
	`
	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical stats: %w", err)
	}
	defer rows.Close()

	var stats []models.HistoricalStats
	for rows.Next() {
		var (
			s      models.HistoricalStats
			source string
		)
		if err := rows.Scan(&source, &s.Records, &s.OldestDate, &s.NewestDate, &s.LastImport); err != nil {
			return nil, fmt.Errorf("failed to scan historical stats: %w", err)
		}
		s.Source = models.HistoricalSource(source)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical stats: %w", err)
	}
	return stats, nil
}
