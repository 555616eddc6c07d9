// Package analysis groups quotes into markets, estimates fair probabilities
// and derives +EV bets and arbitrage pairs.
package analysis

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

// Exclusions counts intentional exclusions by reason and logs each one as
// a filter event
type Exclusions struct {
	mu     sync.Mutex
	counts map[string]int
	log    *logger.AnalysisLogger
}

// NewExclusions creates a recorder. log may be nil.
func NewExclusions(log *logger.AnalysisLogger) *Exclusions {
	return &Exclusions{counts: make(map[string]int), log: log}
}

func (e *Exclusions) exclude(reason string, fields logrus.Fields) {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.counts[reason]++
	e.mu.Unlock()

	if e.log != nil {
		e.log.LogExclusion(reason, fields)
	}
}

// Counts returns a copy of the per-reason counts
func (e *Exclusions) Counts() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}

// Count returns the count for one reason
func (e *Exclusions) Count(reason string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[reason]
}

// withinCap reports whether odds are inside the max-odds cap. Prices
// beyond the cap on either side are treated as corrupted lines.
func withinCap(cfg *config.AnalysisConfig, odds int) bool {
	if cfg.MaxOdds <= 0 {
		return true
	}
	return odds <= cfg.MaxOdds && odds >= -cfg.MaxOdds
}

func quoteFields(q models.Quote) logrus.Fields {
	return logrus.Fields{
		"game_id":       q.GameID,
		"bookie":        q.Bookie,
		"market_key":    q.MarketKey,
		"outcome":       q.Outcome(),
		"betting_point": q.BettingPoint,
		"odds":          q.Odds,
	}
}

func marketFields(k models.MarketKey) logrus.Fields {
	return logrus.Fields{
		"game_id":       k.GameID,
		"market_key":    k.MarketKey,
		"group":         k.Group,
		"betting_point": k.BettingPoint,
	}
}
