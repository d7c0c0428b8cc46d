package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the environment variable holding the integration test DSN.
const TestDSNEnv = "MACHINERY_PRICER_TEST_DSN"

// SetupTestDB connects to the integration database, applies Schema and
// registers cleanup. The test is skipped when TestDSNEnv is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("integration test: set %s to run", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if _, err := db.pool.Exec(cleanupCtx, "TRUNCATE historical_records, auctions, purchases"); err != nil {
			t.Logf("warning: failed to truncate test tables: %v", err)
		}
		db.Close()
	})
	return db
}
