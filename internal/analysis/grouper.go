package analysis

import (
	"sort"
	"strconv"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/oddsmath"
)

// Grouper buckets quotes into markets
type Grouper struct {
	cfg *config.AnalysisConfig
}

// NewGrouper creates a new market grouper
func NewGrouper(cfg *config.AnalysisConfig) *Grouper {
	return &Grouper{cfg: cfg}
}

// Group buckets quotes into markets in one pass. Superseded quotes, invalid
// odds and odds beyond the max-odds cap never reach a market, so a market
// whose every quote was filtered does not exist. The result is ordered by
// key so that runs are reproducible.
func (g *Grouper) Group(quotes []models.Quote) []*models.Market {
	return g.group(quotes, nil)
}

func (g *Grouper) group(quotes []models.Quote, ex *Exclusions) []*models.Market {
	latest := models.LatestQuotes(quotes)
	anchors := spreadAnchors(latest)
	markets := make(map[models.MarketKey]*models.Market)

	for _, q := range latest {
		if err := oddsmath.Validate(q.Odds); err != nil {
			ex.exclude(logger.ReasonInvalidOdds, quoteFields(q))
			continue
		}
		if !withinCap(g.cfg, q.Odds) {
			ex.exclude(logger.ReasonMaxOdds, quoteFields(q))
			continue
		}

		key, kind := g.keyFor(q, anchors)
		m, ok := markets[key]
		if !ok {
			m = &models.Market{Key: key, Kind: kind, SportType: q.SportType}
			markets[key] = m
		}
		m.Quotes = append(m.Quotes, q)
	}

	out := make([]*models.Market, 0, len(markets))
	for _, m := range markets {
		m := m
		if m.Kind == models.KindTwoWay {
			trimTwoWay(m, ex)
		}
		sort.SliceStable(m.Quotes, func(i, j int) bool {
			return m.Quotes[i].Bookie < m.Quotes[j].Bookie
		})
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return lessKey(out[i].Key, out[j].Key)
	})
	return out
}

// KeyFor returns the market a single quote belongs to and the kind of that
// market. Spreads are keyed on the line as seen from the quote's own team.
// Group uses the whole batch so that both sides of a spread share a key.
func (g *Grouper) KeyFor(q models.Quote) (models.MarketKey, models.MarketKind) {
	return g.keyFor(q, map[string]string{q.GameID: q.Selector})
}

func (g *Grouper) keyFor(q models.Quote, anchors map[string]string) (models.MarketKey, models.MarketKind) {
	key := models.MarketKey{
		GameID:       q.GameID,
		MarketType:   q.MarketType,
		MarketKey:    q.MarketKey,
		BettingPoint: q.BettingPoint,
	}

	switch q.MarketType {
	case models.MarketMoneyline:
		key.BettingPoint = models.NoPoint
	case models.MarketSpread:
		if q.Selector != anchors[q.GameID] {
			key.BettingPoint = negatePoint(q.BettingPoint)
		}
	case models.MarketProp:
		if q.IsYes() && g.cfg.IsMultiOutcome(q.MarketKey) {
			return key, models.KindMultiOutcome
		}
		key.Group = q.Participant
	}

	return key, models.KindTwoWay
}

// spreadAnchors picks one team per game whose signed line names the spread
// market. "Bills -3.5" and "Jets 3.5" both key as the Bills' -3.5.
func spreadAnchors(quotes []models.Quote) map[string]string {
	anchors := make(map[string]string)
	for _, q := range quotes {
		if q.MarketType != models.MarketSpread {
			continue
		}
		if cur, ok := anchors[q.GameID]; !ok || q.Selector < cur {
			anchors[q.GameID] = q.Selector
		}
	}
	return anchors
}

// trimTwoWay keeps the two best-supported outcomes of a binary market.
// A third outcome means inconsistent naming across bookies; its quotes
// are dropped.
func trimTwoWay(m *models.Market, ex *Exclusions) {
	outcomes := m.Outcomes()
	if len(outcomes) <= 2 {
		return
	}

	support := make(map[string]int, len(outcomes))
	for _, q := range m.Quotes {
		support[q.Outcome()]++
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		return support[outcomes[i]] > support[outcomes[j]]
	})

	keep := map[string]bool{outcomes[0]: true, outcomes[1]: true}
	kept := m.Quotes[:0]
	for _, q := range m.Quotes {
		if keep[q.Outcome()] {
			kept = append(kept, q)
			continue
		}
		fields := quoteFields(q)
		fields["detail"] = "third outcome in binary market"
		ex.exclude(logger.ReasonMalformed, fields)
	}
	m.Quotes = kept
}

func negatePoint(p string) string {
	v, err := strconv.ParseFloat(p, 64)
	if err != nil || v == 0 {
		return p
	}
	return strconv.FormatFloat(-v, 'f', -1, 64)
}

func lessKey(a, b models.MarketKey) bool {
	if a.GameID != b.GameID {
		return a.GameID < b.GameID
	}
	if a.MarketKey != b.MarketKey {
		return a.MarketKey < b.MarketKey
	}
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.BettingPoint < b.BettingPoint
}
