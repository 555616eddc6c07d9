package analysis

import (
	"sort"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/oddsmath"
)

// ArbitrageDetector finds two-way markets where backing both sides at the
// best available prices locks in a profit
type ArbitrageDetector struct {
	cfg *config.AnalysisConfig
}

// NewArbitrageDetector creates a new arbitrage detector
func NewArbitrageDetector(cfg *config.AnalysisConfig) *ArbitrageDetector {
	return &ArbitrageDetector{cfg: cfg}
}

// Detect returns the arbitrage opportunities across markets sorted by
// profit percentage descending
func (d *ArbitrageDetector) Detect(markets []*models.Market) []models.ArbitrageOpportunity {
	return d.detect(markets, nil)
}

func (d *ArbitrageDetector) detect(markets []*models.Market, ex *Exclusions) []models.ArbitrageOpportunity {
	var out []models.ArbitrageOpportunity
	for _, m := range markets {
		if arb, ok := d.DetectMarket(m, ex); ok {
			out = append(out, arb)
		}
	}
	SortArbitrages(out)
	return out
}

// DetectMarket checks one market. Only two-way markets with exactly two
// outcomes are considered.
func (d *ArbitrageDetector) DetectMarket(m *models.Market, ex *Exclusions) (models.ArbitrageOpportunity, bool) {
	if m.Kind != models.KindTwoWay {
		return models.ArbitrageOpportunity{}, false
	}
	outcomes := m.Outcomes()
	if len(outcomes) != 2 {
		return models.ArbitrageOpportunity{}, false
	}

	sideA := d.ranked(m.QuotesFor(outcomes[0]))
	sideB := d.ranked(m.QuotesFor(outcomes[1]))
	if len(sideA) == 0 || len(sideB) == 0 {
		return models.ArbitrageOpportunity{}, false
	}

	a, b, inverseSum, ok := bestPair(sideA, sideB)
	if !ok || inverseSum >= 1 {
		return models.ArbitrageOpportunity{}, false
	}

	profit := (1/inverseSum - 1) * 100
	roundedProfit := oddsmath.Round(profit, 2)
	roundedInverse := oddsmath.Round(inverseSum, 4)
	if profit < d.cfg.Arbitrage.MinProfitPercentage || roundedProfit <= 0 || roundedInverse >= 1 {
		fields := marketFields(m.Key)
		fields["profit_percentage"] = profit
		ex.exclude(logger.ReasonNoProfit, fields)
		return models.ArbitrageOpportunity{}, false
	}

	decA, _ := oddsmath.AmericanToDecimal(a.Odds)
	decB, _ := oddsmath.AmericanToDecimal(b.Odds)
	total := d.cfg.Arbitrage.TotalStake

	lastUpdated := a.LastUpdated
	if b.LastUpdated.After(lastUpdated) {
		lastUpdated = b.LastUpdated
	}

	return models.ArbitrageOpportunity{
		GameID:           m.Key.GameID,
		SportType:        m.SportType,
		MarketType:       m.Key.MarketType,
		MarketKey:        m.Key.MarketKey,
		Participant:      m.Key.Group,
		BettingPoint:     m.Key.BettingPoint,
		SelectorOne:      arbSelector(a),
		BookieOne:        a.Bookie,
		OddsOne:          a.Odds,
		BetAmountOne:     oddsmath.Round(total*decB/(decA+decB), 2),
		SelectorTwo:      arbSelector(b),
		BookieTwo:        b.Bookie,
		OddsTwo:          b.Odds,
		BetAmountTwo:     oddsmath.Round(total*decA/(decA+decB), 2),
		InverseSum:       roundedInverse,
		ProfitPercentage: roundedProfit,
		EventTime:        a.EventTime,
		LastUpdated:      lastUpdated,
	}, true
}

// ranked orders one side's quotes by best payout, then bookie name
func (d *ArbitrageDetector) ranked(quotes []models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if withinCap(d.cfg, q.Odds) && oddsmath.Validate(q.Odds) == nil {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Odds != out[j].Odds {
			return out[i].Odds > out[j].Odds
		}
		return out[i].Bookie < out[j].Bookie
	})
	return out
}

// bestPair picks the best price on each side from two different bookies.
// When one bookie holds both best prices the second-best price on either
// side is tried and the cheaper combination wins.
func bestPair(sideA, sideB []models.Quote) (models.Quote, models.Quote, float64, bool) {
	if sideA[0].Bookie != sideB[0].Bookie {
		return sideA[0], sideB[0], inverseSum(sideA[0], sideB[0]), true
	}

	var (
		bestA, bestB models.Quote
		bestS        float64
		found        bool
	)
	try := func(a, b models.Quote) {
		if a.Bookie == b.Bookie {
			return
		}
		s := inverseSum(a, b)
		if !found || s < bestS {
			bestA, bestB, bestS, found = a, b, s, true
		}
	}
	if len(sideB) > 1 {
		try(sideA[0], sideB[1])
	}
	if len(sideA) > 1 {
		try(sideA[1], sideB[0])
	}
	return bestA, bestB, bestS, found
}

// arbSelector keeps the signed line on spread sides; props carry the player
// in Participant already
func arbSelector(q models.Quote) string {
	if q.MarketType == models.MarketSpread {
		return q.Outcome()
	}
	return q.Selector
}

func inverseSum(a, b models.Quote) float64 {
	decA, _ := oddsmath.AmericanToDecimal(a.Odds)
	decB, _ := oddsmath.AmericanToDecimal(b.Odds)
	return 1/decA + 1/decB
}

// SortArbitrages orders opportunities by profit descending
func SortArbitrages(arbs []models.ArbitrageOpportunity) {
	sort.SliceStable(arbs, func(i, j int) bool {
		a, b := arbs[i], arbs[j]
		if a.ProfitPercentage != b.ProfitPercentage {
			return a.ProfitPercentage > b.ProfitPercentage
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
		return a.BettingPoint < b.BettingPoint
	})
}
