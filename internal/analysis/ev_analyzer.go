package analysis

import (
	"math"
	"sort"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/oddsmath"
)

// EVAnalyzer finds quotes whose odds pay more than the fair probability
// warrants
type EVAnalyzer struct {
	cfg *config.AnalysisConfig
}

// NewEVAnalyzer creates a new EV analyzer
func NewEVAnalyzer(cfg *config.AnalysisConfig) *EVAnalyzer {
	return &EVAnalyzer{cfg: cfg}
}

// Analyze returns the best +EV quote per candidate key, sorted by EV
// descending
func (a *EVAnalyzer) Analyze(markets []*models.Market, fair Estimates) []models.EVCandidate {
	return a.analyze(markets, fair, nil)
}

func (a *EVAnalyzer) analyze(markets []*models.Market, fair Estimates, ex *Exclusions) []models.EVCandidate {
	best := make(map[models.CandidateKey]models.EVCandidate)
	var order []models.CandidateKey

	for _, m := range markets {
		minBookies := a.cfg.MinBookiesFor(m.Key.MarketKey)

		for _, fp := range fair[m.Key] {
			quotes := m.QuotesFor(fp.Outcome)
			numBookies := m.Bookies(fp.Outcome)
			if numBookies < minBookies {
				ex.exclude(logger.ReasonMinBookies, outcomeFields(m, fp.Outcome, minBookies))
				continue
			}

			implied := make([]float64, 0, len(quotes))
			for _, q := range quotes {
				if imp, err := oddsmath.ImpliedProbability(q.Odds); err == nil {
					implied = append(implied, imp)
				}
			}

			for _, q := range quotes {
				c, ok := a.evaluate(q, fp, numBookies, implied, ex)
				if !ok {
					continue
				}
				key := c.Key()
				cur, exists := best[key]
				if !exists {
					order = append(order, key)
				}
				if !exists || c.ExpectedValue > cur.ExpectedValue {
					best[key] = c
				}
			}
		}
	}

	out := make([]models.EVCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, roundCandidate(best[key]))
	}
	SortCandidates(out)
	return out
}

// evaluate applies the EV target and the z-score ceiling to one quote
func (a *EVAnalyzer) evaluate(q models.Quote, fp models.FairProbability, numBookies int, implied []float64, ex *Exclusions) (models.EVCandidate, bool) {
	ev, err := oddsmath.ExpectedValue(q.Odds, fp.Probability, a.cfg.Stake)
	if err != nil {
		ex.exclude(logger.ReasonInvalidOdds, quoteFields(q))
		return models.EVCandidate{}, false
	}
	// Stored EV is rounded to cents and must stay strictly positive
	if rounded := oddsmath.Round(ev, 2); ev <= a.cfg.EVTarget || rounded <= a.cfg.EVTarget || rounded <= 0 {
		fields := quoteFields(q)
		fields["expected_value"] = ev
		ex.exclude(logger.ReasonEVBelowTarget, fields)
		return models.EVCandidate{}, false
	}

	imp, _ := oddsmath.ImpliedProbability(q.Odds)

	var zScore *float64
	if len(implied) >= a.cfg.ZScoreMinSamples {
		if z, ok := oddsmath.ZScore(imp, implied); ok {
			if math.Abs(z) > a.cfg.ZScoreCeiling {
				fields := quoteFields(q)
				fields["z_score"] = z
				ex.exclude(logger.ReasonZScore, fields)
				return models.EVCandidate{}, false
			}
			zScore = &z
		}
	}

	return models.EVCandidate{
		GameID:             q.GameID,
		SportType:          q.SportType,
		Bookie:             q.Bookie,
		MarketType:         q.MarketType,
		MarketKey:          q.MarketKey,
		Participant:        q.Participant,
		Selector:           q.Selector,
		BettingPoint:       q.BettingPoint,
		Odds:               q.Odds,
		ExpectedValue:      ev,
		FairProbability:    fp.Probability,
		ImpliedProbability: imp,
		MarketOverround:    fp.Overround,
		Source:             fp.Source,
		NumBookies:         numBookies,
		ZScore:             zScore,
		EventTime:          q.EventTime,
		LastUpdated:        q.LastUpdated,
	}, true
}

func roundCandidate(c models.EVCandidate) models.EVCandidate {
	c.ExpectedValue = oddsmath.Round(c.ExpectedValue, 2)
	c.FairProbability = oddsmath.Round(c.FairProbability, 4)
	c.ImpliedProbability = oddsmath.Round(c.ImpliedProbability, 4)
	c.MarketOverround = oddsmath.Round(c.MarketOverround, 4)
	if c.ZScore != nil {
		z := oddsmath.Round(*c.ZScore, 3)
		c.ZScore = &z
	}
	return c
}

// SortCandidates orders candidates by EV descending with a stable
// tie-break on the natural key
func SortCandidates(cs []models.EVCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.MarketKey != b.MarketKey {
			return a.MarketKey < b.MarketKey
		}
		if a.Participant != b.Participant {
			return a.Participant < b.Participant
		}
		if a.Selector != b.Selector {
			return a.Selector < b.Selector
		}
		if a.BettingPoint != b.BettingPoint {
			return a.BettingPoint < b.BettingPoint
		}
		return a.Bookie < b.Bookie
	})
}
