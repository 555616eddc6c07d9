package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

func analyzeWithFair(t *testing.T, minBookies int, fair float64, quotes ...models.Quote) ([]models.EVCandidate, *Exclusions) {
	t.Helper()
	cfg := testConfig(minBookies)
	ex := NewExclusions(nil)
	markets := NewGrouper(cfg).group(quotes, ex)

	est := make(Estimates)
	for _, m := range markets {
		for _, o := range m.Outcomes() {
			est[m.Key] = append(est[m.Key], models.FairProbability{
				Outcome:     o,
				Probability: fair,
				Source:      models.SourceObserved,
				Overround:   1.04,
			})
		}
	}
	return NewEVAnalyzer(cfg).analyze(markets, est, ex), ex
}

func TestEVAnalyzer_KeepsBestQuoteAboveTarget(t *testing.T) {
	candidates, ex := analyzeWithFair(t, 3, 0.5,
		moneyline("g1", "A", "New York Jets", 110),
		moneyline("g1", "B", "New York Jets", 105),
		moneyline("g1", "C", "New York Jets", 100),
	)

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "A", c.Bookie)
	assert.Equal(t, 110, c.Odds)
	assert.Equal(t, 5.0, c.ExpectedValue)
	assert.Equal(t, 0.5, c.FairProbability)
	assert.InDelta(t, 0.4762, c.ImpliedProbability, 1e-9)
	assert.Equal(t, 3, c.NumBookies)
	require.NotNil(t, c.ZScore)
	assert.InDelta(t, -1.215, *c.ZScore, 0.01)

	// B is +EV but loses to A on the same key, C is at break-even
	assert.Equal(t, 1, ex.Count(logger.ReasonEVBelowTarget))
}

func TestEVAnalyzer_ZScoreOutlierExcluded(t *testing.T) {
	var quotes []models.Quote
	for i := 0; i < 9; i++ {
		quotes = append(quotes, moneyline("g1", fmt.Sprintf("book%d", i), "New York Jets", -110))
	}
	quotes = append(quotes, moneyline("g1", "outlier", "New York Jets", 200))

	candidates, ex := analyzeWithFair(t, 3, 0.5, quotes...)

	assert.Empty(t, candidates)
	assert.Equal(t, 1, ex.Count(logger.ReasonZScore))
	assert.Equal(t, 9, ex.Count(logger.ReasonEVBelowTarget))
}

func TestEVAnalyzer_MinBookieGate(t *testing.T) {
	candidates, ex := analyzeWithFair(t, 3, 0.6,
		moneyline("g1", "A", "New York Jets", 150),
		moneyline("g1", "B", "New York Jets", 140),
	)

	assert.Empty(t, candidates)
	assert.Equal(t, 1, ex.Count(logger.ReasonMinBookies))
}

func TestEVAnalyzer_TieKeepsFirstBookie(t *testing.T) {
	candidates, _ := analyzeWithFair(t, 1, 0.5,
		moneyline("g1", "Beta", "New York Jets", 120),
		moneyline("g1", "Alpha", "New York Jets", 120),
	)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Alpha", candidates[0].Bookie)
	assert.Equal(t, 10.0, candidates[0].ExpectedValue)
	assert.Nil(t, candidates[0].ZScore)
}

func TestEVAnalyzer_SortedByEVAndUniquePerKey(t *testing.T) {
	candidates, _ := analyzeWithFair(t, 1, 0.5,
		moneyline("g1", "A", "New York Jets", 120),
		moneyline("g1", "B", "New York Jets", 125),
		moneyline("g2", "A", "Miami Dolphins", 180),
		moneyline("g3", "A", "Chicago Bears", 105),
	)

	require.Len(t, candidates, 3)
	assert.Equal(t, "Miami Dolphins", candidates[0].Selector)
	assert.Equal(t, "New York Jets", candidates[1].Selector)
	assert.Equal(t, "B", candidates[1].Bookie)
	assert.Equal(t, "Chicago Bears", candidates[2].Selector)

	seen := make(map[models.CandidateKey]bool)
	for i, c := range candidates {
		assert.False(t, seen[c.Key()], "duplicate key %v", c.Key())
		seen[c.Key()] = true
		assert.Greater(t, c.ExpectedValue, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, candidates[i-1].ExpectedValue, c.ExpectedValue)
		}
	}
}

func TestEVAnalyzer_ExportedAnalyze(t *testing.T) {
	cfg := testConfig(1)
	markets := NewGrouper(cfg).Group([]models.Quote{
		moneyline("g1", "A", "Buffalo Bills", -150),
		moneyline("g1", "A", "New York Jets", 130),
		moneyline("g1", "B", "Buffalo Bills", -120),
		moneyline("g1", "B", "New York Jets", 100),
	})
	est := NewEstimator(cfg, nil).Estimate(markets)

	candidates := NewEVAnalyzer(cfg).Analyze(markets, est)

	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.Greater(t, c.ExpectedValue, cfg.EVTarget)
	}
}

func TestEVAnalyzer_RoundedEVMustStayPositive(t *testing.T) {
	cfg := testConfig(1)
	cfg.EVTarget = 0

	run := func(fair float64) ([]models.EVCandidate, *Exclusions) {
		ex := NewExclusions(nil)
		markets := NewGrouper(cfg).group([]models.Quote{moneyline("g1", "A", "New York Jets", 100)}, ex)
		require.Len(t, markets, 1)
		est := Estimates{markets[0].Key: {{
			Outcome:     "New York Jets",
			Probability: fair,
			Source:      models.SourceAssumed,
			Overround:   1.04,
		}}}
		return NewEVAnalyzer(cfg).analyze(markets, est, ex), ex
	}

	// EV of 0.002 rounds to zero cents
	candidates, ex := run(0.50001)
	assert.Empty(t, candidates)
	assert.Equal(t, 1, ex.Count(logger.ReasonEVBelowTarget))

	candidates, _ = run(0.5001)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0.02, candidates[0].ExpectedValue)
}
