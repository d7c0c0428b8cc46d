// Package logger provides pricing-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PricingLogger provides dedicated logging for price estimates.
type PricingLogger struct {
	*logrus.Entry
}

// NewPricingLogger creates a new pricing logger.
func NewPricingLogger(baseLogger *logrus.Logger) *PricingLogger {
	return &PricingLogger{
		Entry: baseLogger.WithField("component", "pricing"),
	}
}

// LogEstimate logs a computed estimate.
func (pl *PricingLogger) LogEstimate(useCase, model, value, confidence string, historical, live int, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"use_case":   useCase,
		"model":      model,
		"value":      value,
		"confidence": confidence,
		"historical": historical,
		"live":       live,
		"cache_hit":  cacheHit,
		"latency_ms": latencyMs,
	}).Info("Price estimate computed")
}

// LogSkippedRecord logs a record dropped from aggregation because of bad data.
func (pl *PricingLogger) LogSkippedRecord(origin string, index int, model, reason string) {
	pl.WithFields(logrus.Fields{
		"origin": origin,
		"index":  index,
		"model":  model,
		"reason": reason,
	}).Debug("Record skipped during aggregation")
}

// LogCacheInvalidated logs an estimate cache flush.
func (pl *PricingLogger) LogCacheInvalidated(reason string) {
	pl.WithField("reason", reason).Info("Estimate cache invalidated")
}
