package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery indicates a query that cannot be estimated (missing model, unknown use case)
	ErrInvalidQuery = errors.New("invalid price query")

	// ErrInvalidInput indicates a malformed record encountered during aggregation
	ErrInvalidInput = errors.New("invalid record input")
)

// InvalidInputError describes a record skipped during aggregation
type InvalidInputError struct {
	Origin string // "historical" or "live"
	Index  int    // position in the fetched slice
	Model  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s record %d (%s): %s", e.Origin, e.Index, e.Model, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput)
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
