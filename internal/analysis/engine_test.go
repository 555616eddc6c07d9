package analysis

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

func TestEngine_Analyze(t *testing.T) {
	cfg := testConfig(2)
	engine := NewEngine(*cfg, nil)

	quotes := []models.Quote{
		moneyline("g1", "A", "Buffalo Bills", -150),
		moneyline("g1", "A", "New York Jets", 130),
		moneyline("g1", "B", "Buffalo Bills", -140),
		moneyline("g1", "B", "New York Jets", 125),
		moneyline("g1", "C", "Buffalo Bills", -145),
		moneyline("g1", "C", "New York Jets", 150),
		prop("g1", "A", "player_rush_yds", "James Cook", "over", "65.5", -115),
	}

	res := engine.Analyze(quotes)

	assert.Equal(t, 7, res.Stats.Quotes)
	assert.Equal(t, 2, res.Stats.Markets)
	assert.Equal(t, 1, res.Stats.Priced)
	assert.Equal(t, 1, res.Stats.Excluded[logger.ReasonMinBookies])

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "C", res.Candidates[0].Bookie)
	assert.Equal(t, "New York Jets", res.Candidates[0].Selector)
	assert.Equal(t, res.Stats.Candidates, len(res.Candidates))
	assert.Equal(t, res.Stats.Arbitrages, len(res.Arbitrages))
}

func TestEngine_CorruptedOddsAreExcludedWithoutError(t *testing.T) {
	engine := NewEngine(*testConfig(1), nil)

	res := engine.Analyze([]models.Quote{
		moneyline("g1", "A", "Buffalo Bills", -150),
		moneyline("g1", "A", "New York Jets", 130),
		moneyline("g1", "Joke", "New York Jets", 999999),
	})

	assert.Equal(t, 1, res.Stats.Excluded[logger.ReasonMaxOdds])
	assert.Empty(t, res.Arbitrages)
	for _, m := range res.Markets {
		for _, q := range m.Quotes {
			assert.NotEqual(t, 999999, q.Odds)
		}
	}
	for _, c := range res.Candidates {
		assert.NotEqual(t, "Joke", c.Bookie)
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	res := NewEngine(*testConfig(1), nil).Analyze(nil)

	assert.Zero(t, res.Stats.Markets)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Arbitrages)
	assert.Empty(t, res.Stats.Excluded)
}

func TestEngine_LogsExclusionsAsFilterEvents(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.JSONFormatter{})

	engine := NewEngine(*testConfig(1), logger.NewAnalysisLogger(base))
	engine.Analyze([]models.Quote{moneyline("g1", "Joke", "New York Jets", 999999)})

	out := buf.String()
	assert.Contains(t, out, `"event_type":"filter"`)
	assert.Contains(t, out, `"reason":"max_odds_cap"`)
	assert.Contains(t, out, `"event_type":"summary"`)
	assert.NotContains(t, out, `"level":"error"`)
}
