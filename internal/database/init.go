package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/machinery-pricer/internal/config"
)

// ErrSchemaOutdated is returned when the connected database has not been
// migrated to RequiredSchemaVersion.
var ErrSchemaOutdated = errors.New("database schema is outdated")

// Initialize creates a database connection pool and verifies the schema version.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.CheckSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CheckSchema compares the highest applied migration with RequiredSchemaVersion.
func (db *DB) CheckSchema(ctx context.Context) error {
	var version *int
	err := db.pool.QueryRow(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return fmt.Errorf("%w: cannot read schema_migrations: %v", ErrSchemaOutdated, err)
	}
	if version == nil || *version < RequiredSchemaVersion {
		current := 0
		if version != nil {
			current = *version
		}
		return fmt.Errorf("%w: have version %d, need %d (run `pricectl migrate`)",
			ErrSchemaOutdated, current, RequiredSchemaVersion)
	}
	return nil
}

// Migrate applies Schema in a single transaction.
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, Schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
}
