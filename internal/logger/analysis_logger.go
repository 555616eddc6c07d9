// Package logger provides analysis-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AnalysisLogger provides dedicated logging for the analysis engine.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: baseLogger.WithField("component", "analysis"),
	}
}

// With returns a copy of the logger carrying extra fields
func (al *AnalysisLogger) With(fields logrus.Fields) *AnalysisLogger {
	return &AnalysisLogger{Entry: al.WithFields(fields)}
}

// LogExclusion logs an intentional exclusion. It is not an error.
func (al *AnalysisLogger) LogExclusion(reason string, fields logrus.Fields) {
	al.WithFields(fields).WithFields(logrus.Fields{
		"event_type": EventFilter,
		"reason":     reason,
	}).Debug("Excluded from analysis")
}

// LogMarketPriced logs the estimated fair probabilities of a market.
func (al *AnalysisLogger) LogMarketPriced(gameID, marketKey, source string, outcomes int, overround float64) {
	al.WithFields(logrus.Fields{
		"game_id":    gameID,
		"market_key": marketKey,
		"source":     source,
		"outcomes":   outcomes,
		"overround":  overround,
	}).Debug("Market priced")
}

// LogAnalysisSummary logs the totals of one analysis pass.
func (al *AnalysisLogger) LogAnalysisSummary(quotes, markets, priced, candidates, arbitrages int, excluded map[string]int) {
	al.WithFields(logrus.Fields{
		"event_type":     EventSummary,
		"quotes":         quotes,
		"markets":        markets,
		"markets_priced": priced,
		"ev_candidates":  candidates,
		"arbitrages":     arbitrages,
		"excluded":       excluded,
	}).Info("Analysis completed")
}
