package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleEstimate() *models.Estimate {
	v := decimal.NewFromInt(61800)
	return &models.Estimate{
		UseCase:    models.UseCaseAuction,
		Model:      "ZX200-6",
		Value:      &v,
		Confidence: models.ConfidenceHigh,
	}
}

func TestEstimateKey(t *testing.T) {
	cost := decimal.NewFromInt(50000)
	tests := []struct {
		name string
		q    models.QuerySpec
		want string
	}{
		{"model only", models.QuerySpec{UseCase: models.UseCaseAuction, Model: " ZX200 "}, "auction|ZX200|-|-|0|0|-"},
		{"all fields", models.QuerySpec{UseCase: models.UseCasePVP, Model: "320D", Year: intPtr(2018), Hours: intPtr(5000), YearTolerance: 1, HoursTolerance: 2000, CostForMargin: &cost}, "pvp|320D|2018|5000|1|2000|50000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateKey(tt.q))
		})
	}
}

func TestEstimateKeySeparatesTolerances(t *testing.T) {
	wide := models.QuerySpec{UseCase: models.UseCasePVP, Model: "ZX200-6", Year: intPtr(2020), YearTolerance: 20}
	narrow := wide
	narrow.YearTolerance = 1
	assert.NotEqual(t, EstimateKey(wide), EstimateKey(narrow))

	fewerHours := wide
	fewerHours.HoursTolerance = 500
	assert.NotEqual(t, EstimateKey(wide), EstimateKey(fewerHours))
}

func TestMemoryStoreHitMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 10)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", sampleEstimate()))
	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ZX200-6", got.Model)

	stats := store.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.Ratio, 1e-9)
	assert.Equal(t, 1, stats.Items)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 10)

	est := sampleEstimate()
	est.HistoricalSamples = []models.Sample{{Model: "ZX200-6", Year: intPtr(2019), Price: decimal.NewFromInt(60000)}}
	require.NoError(t, store.Set(ctx, "k", est))

	*est.Value = decimal.NewFromInt(1)
	est.HistoricalSamples[0].Model = "changed"

	first, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, decimal.NewFromInt(61800).Equal(*first.Value))
	assert.Equal(t, "ZX200-6", first.HistoricalSamples[0].Model)

	first.Confidence = models.ConfidenceNone
	*first.HistoricalSamples[0].Year = 1990

	second, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotSame(t, first, second)
	assert.Equal(t, models.ConfidenceHigh, second.Confidence)
	assert.Equal(t, 2019, *second.HistoricalSamples[0].Year)
}

func TestMemoryStoreRespectsMaxSize(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 2)

	require.NoError(t, store.Set(ctx, "a", sampleEstimate()))
	require.NoError(t, store.Set(ctx, "b", sampleEstimate()))
	require.NoError(t, store.Set(ctx, "c", sampleEstimate()))
	assert.Equal(t, 2, store.Stats().Items)

	// overwriting an existing key is always allowed
	require.NoError(t, store.Set(ctx, "a", sampleEstimate()))
	assert.Equal(t, 2, store.Stats().Items)
}

func TestMemoryStoreFlush(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 10)
	require.NoError(t, store.Set(ctx, "k", sampleEstimate()))
	_, _, _ = store.Get(ctx, "k")

	require.NoError(t, store.Flush(ctx))

	_, found, _ := store.Get(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, uint64(0), store.Stats().Hits)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: "memory", TTLSeconds: 60, MaxSize: 10}}
	store, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.Cache.Backend = "none"
	store, err = NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, NoopStore{}, store)

	cfg.Cache.Backend = "memcached"
	_, err = NewStore(cfg)
	assert.Error(t, err)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("MACHINERY_PRICER_TEST_REDIS")
	if addr == "" {
		t.Skip("integration test: set MACHINERY_PRICER_TEST_REDIS to run")
	}
	ctx := context.Background()
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), "pricer-test:", time.Minute)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.Set(ctx, "k", sampleEstimate()))
	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, decimal.NewFromInt(61800).Equal(*got.Value))

	require.NoError(t, store.Flush(ctx))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
