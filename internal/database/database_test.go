package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/machinery-pricer/internal/config"
)

func TestConnString(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "pricer",
		User:     "pricer",
		Password: "secret",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db.internal port=5432 user=pricer password=secret dbname=pricer sslmode=disable", ConnString(cfg))
}

func TestConnectRejectsMalformedDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "postgres://%zz", 2, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database config")
}

func TestSchemaCheckAfterMigrate(t *testing.T) {
	db := SetupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.CheckSchema(ctx))
	require.NoError(t, db.HealthCheck(ctx))
}
