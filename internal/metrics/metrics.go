// Package metrics provides centralized Prometheus metrics registry for the pricing service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "machinery_pricer"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	EstimatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimates_total",
		Help:      "Total number of price estimates by use case and confidence",
	}, []string{"use_case", "confidence"})
	EstimateSkippedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimate_skipped_records_total",
		Help:      "Records dropped from aggregation because of invalid data",
	}, []string{"source"})
	HistoricalImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "historical_import_rows_total",
		Help:      "Spreadsheet rows processed by import result",
	}, []string{"result"})
	HistoricalRecordsClearedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "historical_records_cleared_total",
		Help:      "Total number of historical records removed by bulk clears",
	})
)

// Gauge metrics
var (
	EstimateCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "estimate_cache_hit_ratio",
		Help:      "Hit ratio of the estimate cache",
	})
)

// Histogram metrics
var (
	EstimateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "estimate_duration_seconds",
		Help:      "Duration of price estimate requests in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"use_case"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(EstimatesTotal)
		registry.MustRegister(EstimateSkippedRecordsTotal)
		registry.MustRegister(HistoricalImportRowsTotal)
		registry.MustRegister(HistoricalRecordsClearedTotal)
		registry.MustRegister(EstimateCacheHitRatio)
		registry.MustRegister(EstimateDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEstimate records a completed estimate.
func RecordEstimate(useCase, confidence string, durationSeconds float64) {
	EstimatesTotal.WithLabelValues(useCase, confidence).Inc()
	EstimateDuration.WithLabelValues(useCase).Observe(durationSeconds)
}

// RecordSkippedRecords records records dropped from aggregation.
func RecordSkippedRecords(source string, count int) {
	if count <= 0 {
		return
	}
	EstimateSkippedRecordsTotal.WithLabelValues(source).Add(float64(count))
}

// RecordImportRows records the outcome of an import batch.
func RecordImportRows(inserted, skipped int) {
	HistoricalImportRowsTotal.WithLabelValues("inserted").Add(float64(inserted))
	HistoricalImportRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordRecordsCleared records a bulk clear.
func RecordRecordsCleared(count int64) {
	HistoricalRecordsClearedTotal.Add(float64(count))
}

// UpdateCacheHitRatio updates the cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	EstimateCacheHitRatio.Set(ratio)
}
