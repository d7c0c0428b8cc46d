package service

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/models"
)

// MockHistoricalRepository mocks the historical repository
type MockHistoricalRepository struct {
	mock.Mock
}

func (m *MockHistoricalRepository) FetchMatching(ctx context.Context, q models.QuerySpec, sources []models.HistoricalSource, limit int) ([]models.HistoricalRecord, error) {
	args := m.Called(ctx, q, sources, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoricalRecord), args.Error(1)
}

func (m *MockHistoricalRepository) InsertBatch(ctx context.Context, records []models.HistoricalRecord) (int64, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHistoricalRepository) DeleteAll(ctx context.Context, source models.HistoricalSource) (int64, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHistoricalRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHistoricalRepository) Stats(ctx context.Context) ([]models.HistoricalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoricalStats), args.Error(1)
}

// MockLiveRepository mocks the live price repository
type MockLiveRepository struct {
	mock.Mock
}

func (m *MockLiveRepository) FetchMatching(ctx context.Context, q models.QuerySpec, limit int) ([]models.LiveRecord, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LiveRecord), args.Error(1)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testEstimatorConfig() config.EstimatorConfig {
	return config.EstimatorConfig{
		HistoricalCap:     20,
		LiveCap:           10,
		HighConfidenceMin: 5,
		LiveMediumMin:     3,
		UnknownRecency:    "median",
		UseCases: map[string]config.UseCaseConfig{
			"auction":   {HistoricalWeight: 0.7, LiveWeight: 0.3, YearTolerance: 3, HoursTolerance: 3000, HistoricalSources: []string{"auction"}},
			"pvp":       {HistoricalWeight: 0.6, LiveWeight: 0.4, YearTolerance: 2, HoursTolerance: 2000, HistoricalSources: []string{"pvp"}},
			"repuestos": {HistoricalWeight: 0.6, LiveWeight: 0.4, YearTolerance: 5},
		},
	}
}
