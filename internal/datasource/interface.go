package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecordSource supplies raw historical price rows from an external provider
type RecordSource interface {
	// FetchRecords returns every row the source could parse
	FetchRecords(ctx context.Context) ([]RecordRow, error)

	// Name returns the name of the source (file name or URL)
	Name() string
}

// RecordRow is one parsed spreadsheet row, before domain validation.
// Optional cells that were blank are nil.
type RecordRow struct {
	Row    int              `json:"row"`
	Model  string           `json:"model"`
	Brand  *string          `json:"brand,omitempty"`
	Year   *int             `json:"year,omitempty"`
	Hours  *int             `json:"hours,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Date   *time.Time       `json:"date,omitempty"`
	Source string           `json:"source,omitempty"`
}

// RowError describes a row that could not be parsed
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "invalid_data")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code
func (e DataSourceError) Is(target error) bool {
	switch e.Code {
	case ErrCodeInvalidData:
		return target == ErrInvalidData
	case ErrCodeMissingColumn:
		return target == ErrMissingColumn
	case ErrCodeNetworkError:
		return target == ErrNetworkError
	case ErrCodeServerError:
		return target == ErrServerError
	case ErrCodeTooLarge:
		return target == ErrTooLarge
	}
	return false
}

// Common error codes
const (
	ErrCodeInvalidData   = "invalid_data"
	ErrCodeMissingColumn = "missing_column"
	ErrCodeNetworkError  = "network_error"
	ErrCodeServerError   = "server_error"
	ErrCodeTooLarge      = "too_large"
)

// Sentinel errors
var (
	ErrInvalidData   = errors.New("invalid data format")
	ErrMissingColumn = errors.New("required column missing")
	ErrNetworkError  = errors.New("network error")
	ErrServerError   = errors.New("server error")
	ErrTooLarge      = errors.New("payload too large")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
