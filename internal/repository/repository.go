package repository

import (
	"fmt"

	"github.com/yourusername/machinery-pricer/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Historical HistoricalRepository
	Live       LiveRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Historical: NewPostgresHistoricalRepository(db),
		Live:       NewPostgresLiveRepository(db),
	}, nil
}
