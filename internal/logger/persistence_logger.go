package logger

import (
	"github.com/sirupsen/logrus"
)

// PersistenceLogger provides logging for batch writes.
type PersistenceLogger struct {
	*logrus.Entry
}

// NewPersistenceLogger creates a new persistence logger.
func NewPersistenceLogger(baseLogger *logrus.Logger) *PersistenceLogger {
	return &PersistenceLogger{
		Entry: baseLogger.WithField("component", "persistence"),
	}
}

// LogOrphanSkipped logs rows dropped because their game is unknown.
func (pl *PersistenceLogger) LogOrphanSkipped(table string, gameIDs []string, rows int) {
	pl.WithFields(logrus.Fields{
		"event_type": EventFailure,
		"table":      table,
		"game_ids":   gameIDs,
		"rows":       rows,
	}).Warn("Skipping rows referencing unknown games")
}

// LogBatchRetry logs a transient conflict that will be retried.
func (pl *PersistenceLogger) LogBatchRetry(table string, batch, attempt int, err error) {
	pl.WithFields(logrus.Fields{
		"table":   table,
		"batch":   batch,
		"attempt": attempt,
	}).WithError(err).Debug("Retrying batch after transaction conflict")
}

// LogBatchFailed logs a batch that exhausted its retries.
func (pl *PersistenceLogger) LogBatchFailed(table string, batch, rows, attempts int, err error) {
	pl.WithFields(logrus.Fields{
		"event_type": EventFailure,
		"table":      table,
		"batch":      batch,
		"rows":       rows,
		"attempts":   attempts,
	}).WithError(err).Error("Batch write failed")
}
