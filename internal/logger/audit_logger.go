// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger records changes to the historical price table.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogHistoricalImport logs a completed spreadsheet import.
func (al *AuditLogger) LogHistoricalImport(batchID, origin, source string, total, inserted, skipped int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"batch_id":    batchID,
		"origin":      origin,
		"source":      source,
		"rows_total":  total,
		"inserted":    inserted,
		"skipped":     skipped,
		"duration_ms": duration.Milliseconds(),
	}).Info("Historical import recorded")
}

// LogHistoricalClear logs a bulk delete of historical records.
func (al *AuditLogger) LogHistoricalClear(source string, deleted int64, requestedBy string) {
	if source == "" {
		source = "all"
	}
	al.WithFields(logrus.Fields{
		"source":       source,
		"deleted":      deleted,
		"requested_by": requestedBy,
	}).Warn("Historical records cleared")
}
