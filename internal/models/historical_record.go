package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoricalSource identifies where an imported historical price came from
type HistoricalSource string

const (
	HistoricalSourceAuction HistoricalSource = "auction"
	HistoricalSourcePVP     HistoricalSource = "pvp"
)

// Valid reports whether the source is one of the known historical sources
func (s HistoricalSource) Valid() bool {
	return s == HistoricalSourceAuction || s == HistoricalSourcePVP
}

// HistoricalRecord is a single imported auction or PVP price.
// Records are created by bulk import and removed only by bulk clear.
type HistoricalRecord struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	Model         string              `db:"model" json:"model" validate:"required"`
	Brand         *string             `db:"brand" json:"brand,omitempty"`
	Year          *int                `db:"year" json:"year,omitempty"`
	Hours         *int                `db:"hours" json:"hours,omitempty"`
	Price         decimal.NullDecimal `db:"price" json:"price"`
	RecordDate    *time.Time          `db:"record_date" json:"record_date,omitempty"`
	Source        HistoricalSource    `db:"source" json:"source" validate:"required,oneof=auction pvp"`
	ImportBatchID uuid.UUID           `db:"import_batch_id" json:"import_batch_id"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
}

// ReferenceDate returns the date used to age the record: the explicit
// record date when present, otherwise January 1st of the machine year.
func (r *HistoricalRecord) ReferenceDate() *time.Time {
	if r.RecordDate != nil {
		return r.RecordDate
	}
	if r.Year != nil {
		t := time.Date(*r.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

// HistoricalStats summarises the historical table per source
type HistoricalStats struct {
	Source     HistoricalSource `json:"source"`
	Records    int64            `json:"records"`
	OldestDate *time.Time       `json:"oldest_date,omitempty"`
	NewestDate *time.Time       `json:"newest_date,omitempty"`
	LastImport *time.Time       `json:"last_import,omitempty"`
}
