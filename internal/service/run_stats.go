package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/analysis"
	"github.com/yourusername/oddsedge/internal/repository"
)

// RunStats tracks what one run fetched, analyzed and wrote
type RunStats struct {
	mu           sync.Mutex
	RunID        string
	StartTime    time.Time
	Duration     time.Duration
	Sports       int
	Events       int
	Games        int
	Quotes       int
	Normalize    NormalizeStats
	SkippedUnits int
	Analysis     analysis.Stats
	Writes       map[string]repository.WriteResult
	Pruned       int64
	GamesDeleted int
	Published    int
}

// NewRunStats creates a new stats tracker
func NewRunStats(runID string) *RunStats {
	return &RunStats{
		RunID:     runID,
		StartTime: time.Now(),
		Writes:    make(map[string]repository.WriteResult),
	}
}

// RecordWrite accumulates a write result under a target name
func (s *RunStats) RecordWrite(target string, res repository.WriteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.Writes[target]
	w.Add(res)
	s.Writes[target] = w
}

// FailedBatches returns the number of failed batches across every write
func (s *RunStats) FailedBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.Writes {
		n += w.FailedBatches
	}
	return n
}

// Status is "success" or "partial" when batches failed or units were skipped
func (s *RunStats) Status() string {
	if s.FailedBatches() > 0 || s.SkippedUnits > 0 {
		return "partial"
	}
	return "success"
}

// Fields returns the stats as log fields
func (s *RunStats) Fields() logrus.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted int64
	orphans := 0
	for _, w := range s.Writes {
		inserted += w.Inserted
		orphans += w.SkippedOrphans
	}

	return logrus.Fields{
		"sports":          s.Sports,
		"events":          s.Events,
		"games":           s.Games,
		"quotes":          s.Quotes,
		"skipped_units":   s.SkippedUnits,
		"markets":         s.Analysis.Markets,
		"ev_candidates":   s.Analysis.Candidates,
		"arbitrages":      s.Analysis.Arbitrages,
		"rows_inserted":   inserted,
		"orphans_skipped": orphans,
		"rows_pruned":     s.Pruned,
		"games_deleted":   s.GamesDeleted,
		"published":       s.Published,
	}
}

// String returns a formatted string representation of the stats
func (s *RunStats) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fmt.Sprintf(
		"RunStats{Run=%s, Sports=%d, Games=%d, Quotes=%d, Markets=%d, EV=%d, Arbitrage=%d, Skipped=%d, Duration=%v}",
		s.RunID,
		s.Sports,
		s.Games,
		s.Quotes,
		s.Analysis.Markets,
		s.Analysis.Candidates,
		s.Analysis.Arbitrages,
		s.SkippedUnits,
		s.Duration,
	)
}
