package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LiveStatus is the state of the transaction a live record was read from
type LiveStatus string

const (
	LiveStatusWon       LiveStatus = "GANADA"
	LiveStatusPurchased LiveStatus = "COMPRADA"
	LiveStatusSold      LiveStatus = "VENDIDA"
)

// LiveRecord is a price observed in the transactional tables (won auctions,
// purchases). The estimator only ever reads these.
type LiveRecord struct {
	ID        uuid.UUID           `db:"id" json:"id"`
	Model     string              `db:"model" json:"model"`
	Year      *int                `db:"year" json:"year,omitempty"`
	Hours     *int                `db:"hours" json:"hours,omitempty"`
	Price     decimal.NullDecimal `db:"price" json:"price"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	Status    LiveStatus          `db:"status" json:"status"`
}

// ReferenceDate returns the transaction timestamp, or nil when unset
func (r *LiveRecord) ReferenceDate() *time.Time {
	if r.CreatedAt.IsZero() {
		return nil
	}
	return &r.CreatedAt
}
