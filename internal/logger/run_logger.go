// Package logger provides run-level logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger provides logging for one engine run. Every line carries the run ID.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger *logrus.Logger, runID string) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "run",
			"run_id":    runID,
		}),
	}
}

// Component returns an entry for a sub-component sharing the run ID.
func (rl *RunLogger) Component(name string) *logrus.Entry {
	return rl.WithField("component", name)
}

// LogRunStarted logs the beginning of a run.
func (rl *RunLogger) LogRunStarted(sports int) {
	rl.WithField("sports", sports).Info("Run started")
}

// LogUnitSkipped logs a recoverable failure. The unit is dropped and the run continues.
func (rl *RunLogger) LogUnitSkipped(unit, id string, err error) {
	rl.WithFields(logrus.Fields{
		"event_type": EventFailure,
		"unit":       unit,
		"unit_id":    id,
	}).WithError(err).Warn("Skipping unit after recoverable failure")
}

// LogFatal logs an error that aborts the whole run.
func (rl *RunLogger) LogFatal(stage string, err error) {
	rl.WithFields(logrus.Fields{
		"event_type": EventFatal,
		"stage":      stage,
	}).WithError(err).Error("Run aborted")
}

// LogStage logs the outcome of one stage of the run.
func (rl *RunLogger) LogStage(stage string, fields logrus.Fields) {
	rl.WithFields(fields).WithField("stage", stage).Info("Stage completed")
}

// LogRunCompleted logs the outcome of a run.
func (rl *RunLogger) LogRunCompleted(duration time.Duration, fields logrus.Fields) {
	rl.WithFields(fields).WithFields(logrus.Fields{
		"event_type":  EventSummary,
		"duration_ms": duration.Milliseconds(),
	}).Info("Run completed")
}
