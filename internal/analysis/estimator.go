package analysis

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/oddsmath"
)

// Estimates maps each priced market to the fair probabilities of the
// outcomes that could be priced
type Estimates map[models.MarketKey][]models.FairProbability

// Lookup returns the fair probability of one outcome of a market
func (e Estimates) Lookup(key models.MarketKey, outcome string) (models.FairProbability, bool) {
	for _, fp := range e[key] {
		if fp.Outcome == outcome {
			return fp, true
		}
	}
	return models.FairProbability{}, false
}

// Estimator removes the bookmaker margin from grouped markets
type Estimator struct {
	cfg *config.AnalysisConfig
	log *logger.AnalysisLogger
}

// NewEstimator creates a new fair-probability estimator. log may be nil.
func NewEstimator(cfg *config.AnalysisConfig, log *logger.AnalysisLogger) *Estimator {
	return &Estimator{cfg: cfg, log: log}
}

// Estimate prices every market it can. The first pass learns the observed
// overround per odds bucket from fully paired two-way markets; the second
// pass prices each market from paired quotes where enough exist and falls
// back to the learned or configured overround otherwise.
func (e *Estimator) Estimate(markets []*models.Market) Estimates {
	return e.estimate(markets, nil)
}

func (e *Estimator) estimate(markets []*models.Market, ex *Exclusions) Estimates {
	table := e.LearnOverrounds(markets)
	out := make(Estimates, len(markets))

	for _, m := range markets {
		var probs []models.FairProbability
		switch m.Kind {
		case models.KindMultiOutcome:
			probs = e.estimateMultiOutcome(m, ex)
		default:
			probs = e.estimateTwoWay(m, table, ex)
		}
		if len(probs) == 0 {
			continue
		}
		out[m.Key] = probs

		if e.log != nil {
			e.log.LogMarketPriced(m.Key.GameID, m.Key.MarketKey, string(probs[0].Source), len(probs), probs[0].Overround)
		}
	}
	return out
}

// OverroundTable holds the overround observed per odds bucket in one run
type OverroundTable struct {
	cfg    *config.OverroundConfig
	sums   []float64
	counts []int
}

// LearnOverrounds accumulates the overround of every bookie quoting both
// sides of a two-way market into the buckets of both sides' odds
func (e *Estimator) LearnOverrounds(markets []*models.Market) *OverroundTable {
	n := len(e.cfg.Overround.Buckets)
	t := &OverroundTable{
		cfg:    &e.cfg.Overround,
		sums:   make([]float64, n),
		counts: make([]int, n),
	}

	for _, m := range markets {
		if m.Kind != models.KindTwoWay {
			continue
		}
		outcomes := m.Outcomes()
		if len(outcomes) != 2 {
			continue
		}
		for _, pair := range pairByBookie(m, outcomes[0], outcomes[1]) {
			sum := pair.impA + pair.impB
			t.add(pair.a.Odds, sum)
			t.add(pair.b.Odds, sum)
		}
	}
	return t
}

func (t *OverroundTable) add(odds int, overround float64) {
	if len(t.sums) == 0 {
		return
	}
	i := t.cfg.BucketIndex(odds)
	t.sums[i] += overround
	t.counts[i]++
}

// Overround returns the overround for the bucket the odds fall into. The
// observed mean is used once the bucket has enough samples, otherwise the
// configured value.
func (t *OverroundTable) Overround(odds int) float64 {
	if len(t.cfg.Buckets) == 0 {
		return 1
	}
	i := t.cfg.BucketIndex(odds)
	if t.counts[i] >= t.cfg.MinSamples && t.counts[i] > 0 {
		return t.sums[i] / float64(t.counts[i])
	}
	return t.cfg.Buckets[i].Overround
}

// Samples returns the number of observations in the bucket of the odds
func (t *OverroundTable) Samples(odds int) int {
	if len(t.cfg.Buckets) == 0 {
		return 0
	}
	return t.counts[t.cfg.BucketIndex(odds)]
}

type bookiePair struct {
	a, b       models.Quote
	impA, impB float64
}

// pairByBookie returns one pair per bookie quoting both outcomes, ordered
// by bookie. Quotes are sorted by bookie so the first quote per outcome wins.
func pairByBookie(m *models.Market, outcomeA, outcomeB string) []bookiePair {
	sideB := firstByBookie(m.QuotesFor(outcomeB))
	seen := make(map[string]struct{})

	var pairs []bookiePair
	for _, a := range m.QuotesFor(outcomeA) {
		if _, ok := seen[a.Bookie]; ok {
			continue
		}
		seen[a.Bookie] = struct{}{}

		b, ok := sideB[a.Bookie]
		if !ok {
			continue
		}
		impA, errA := oddsmath.ImpliedProbability(a.Odds)
		impB, errB := oddsmath.ImpliedProbability(b.Odds)
		if errA != nil || errB != nil {
			continue
		}
		pairs = append(pairs, bookiePair{a: a, b: b, impA: impA, impB: impB})
	}
	return pairs
}

func firstByBookie(quotes []models.Quote) map[string]models.Quote {
	out := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		if _, ok := out[q.Bookie]; !ok {
			out[q.Bookie] = q
		}
	}
	return out
}

func (e *Estimator) estimateTwoWay(m *models.Market, table *OverroundTable, ex *Exclusions) []models.FairProbability {
	outcomes := m.Outcomes()
	minBookies := e.cfg.MinBookiesFor(m.Key.MarketKey)

	if len(outcomes) == 2 {
		a, b := outcomes[0], outcomes[1]

		pairs := pairByBookie(m, a, b)
		if len(pairs) >= minBookies {
			return noVigFromPairs(a, b, pairs)
		}

		if m.Bookies(a) >= minBookies && m.Bookies(b) >= minBookies {
			return noVigFromAverages(m, a, b)
		}
	}

	var out []models.FairProbability
	for _, o := range outcomes {
		if m.Bookies(o) < minBookies {
			ex.exclude(logger.ReasonMinBookies, outcomeFields(m, o, minBookies))
			continue
		}
		if fp, ok := e.fallback(m, o, table, ex); ok {
			out = append(out, fp)
		}
	}
	return out
}

// noVigFromPairs takes the median of the per-bookie no-vig probabilities of
// side A. Side B is its complement so the pair sums to exactly 1.
func noVigFromPairs(a, b string, pairs []bookiePair) []models.FairProbability {
	probs := make([]float64, 0, len(pairs))
	overrounds := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		pa, _, err := oddsmath.NoVigPair(p.impA, p.impB)
		if err != nil {
			continue
		}
		probs = append(probs, pa)
		overrounds = append(overrounds, p.impA+p.impB)
	}
	if len(probs) == 0 {
		return nil
	}

	pa := oddsmath.Median(probs)
	overround := oddsmath.Median(overrounds)
	return []models.FairProbability{
		{Outcome: a, Probability: pa, Source: models.SourceObserved, Overround: overround},
		{Outcome: b, Probability: 1 - pa, Source: models.SourceObserved, Overround: overround},
	}
}

// noVigFromAverages normalizes the average implied probability of each side
// when both sides are well quoted but too few bookies quote both
func noVigFromAverages(m *models.Market, a, b string) []models.FairProbability {
	avgA := averageImplied(m.QuotesFor(a))
	avgB := averageImplied(m.QuotesFor(b))
	pa, _, err := oddsmath.NoVigPair(avgA, avgB)
	if err != nil {
		return nil
	}
	overround := avgA + avgB
	return []models.FairProbability{
		{Outcome: a, Probability: pa, Source: models.SourceObserved, Overround: overround},
		{Outcome: b, Probability: 1 - pa, Source: models.SourceObserved, Overround: overround},
	}
}

// fallback prices one side from the assumed overround of its odds bucket
func (e *Estimator) fallback(m *models.Market, outcome string, table *OverroundTable, ex *Exclusions) (models.FairProbability, bool) {
	quotes := m.QuotesFor(outcome)
	odds := make([]int, 0, len(quotes))
	for _, q := range quotes {
		odds = append(odds, q.Odds)
	}

	median, err := oddsmath.MedianOdds(odds)
	if err != nil || len(odds) == 0 {
		return models.FairProbability{}, false
	}

	overround := e.AssumedOverround(median, table)
	p := averageImplied(quotes) / overround
	if p <= 0 || p >= 1 {
		fields := outcomeFields(m, outcome, 0)
		fields["probability"] = p
		ex.exclude(logger.ReasonMalformed, fields)
		return models.FairProbability{}, false
	}

	return models.FairProbability{
		Outcome:     outcome,
		Probability: p,
		Source:      models.SourceAssumed,
		Overround:   overround,
	}, true
}

// AssumedOverround returns the overround for the bucket of the median odds,
// inflated for long shots and deflated for heavy favorites. It never drops
// below 1.
func (e *Estimator) AssumedOverround(medianOdds int, table *OverroundTable) float64 {
	oc := e.cfg.Overround
	overround := table.Overround(medianOdds)

	switch {
	case medianOdds > oc.LongshotThreshold:
		overround *= 1 + oc.LongshotInflation
	case medianOdds < oc.FavoriteThreshold:
		overround *= 1 - oc.FavoriteDeflation
	}
	if overround < 1 {
		overround = 1
	}
	return overround
}

// estimateMultiOutcome normalizes across all outcomes at once. A covering
// bookie quotes at least two outcomes whose implied probabilities sum to
// at least 1; its sum is its market overround.
func (e *Estimator) estimateMultiOutcome(m *models.Market, ex *Exclusions) []models.FairProbability {
	minBookies := e.cfg.MinBookiesFor(m.Key.MarketKey)
	covering := coveringOverrounds(m)

	coveringValues := make([]float64, 0, len(covering))
	for _, ov := range covering {
		coveringValues = append(coveringValues, ov)
	}
	marketOverround := e.cfg.Overround.MultiOutcomeDefault
	if len(coveringValues) > 0 {
		marketOverround = oddsmath.Median(coveringValues)
	}

	var out []models.FairProbability
	for _, o := range m.Outcomes() {
		quotes := m.QuotesFor(o)

		var observed, overrounds []float64
		for _, q := range quotes {
			ov, ok := covering[q.Bookie]
			if !ok {
				continue
			}
			imp, err := oddsmath.ImpliedProbability(q.Odds)
			if err != nil {
				continue
			}
			observed = append(observed, imp/ov)
			overrounds = append(overrounds, ov)
		}

		var fp models.FairProbability
		switch {
		case len(observed) >= minBookies:
			fp = models.FairProbability{
				Outcome:     o,
				Probability: oddsmath.Median(observed),
				Source:      models.SourceObserved,
				Overround:   oddsmath.Median(overrounds),
			}
		case m.Bookies(o) >= minBookies:
			fp = models.FairProbability{
				Outcome:     o,
				Probability: averageImplied(quotes) / marketOverround,
				Source:      models.SourceAssumed,
				Overround:   marketOverround,
			}
		default:
			ex.exclude(logger.ReasonMinBookies, outcomeFields(m, o, minBookies))
			continue
		}

		if fp.Probability <= 0 || fp.Probability >= 1 {
			fields := outcomeFields(m, o, minBookies)
			fields["probability"] = fp.Probability
			ex.exclude(logger.ReasonMalformed, fields)
			continue
		}
		out = append(out, fp)
	}
	return out
}

func coveringOverrounds(m *models.Market) map[string]float64 {
	sums := make(map[string]float64)
	outcomes := make(map[string]map[string]struct{})
	for _, q := range m.Quotes {
		imp, err := oddsmath.ImpliedProbability(q.Odds)
		if err != nil {
			continue
		}
		if outcomes[q.Bookie] == nil {
			outcomes[q.Bookie] = make(map[string]struct{})
		}
		if _, seen := outcomes[q.Bookie][q.Outcome()]; seen {
			continue
		}
		outcomes[q.Bookie][q.Outcome()] = struct{}{}
		sums[q.Bookie] += imp
	}

	covering := make(map[string]float64)
	for bookie, sum := range sums {
		if len(outcomes[bookie]) >= 2 && sum >= 1 {
			covering[bookie] = sum
		}
	}
	return covering
}

func averageImplied(quotes []models.Quote) float64 {
	probs := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		if imp, err := oddsmath.ImpliedProbability(q.Odds); err == nil {
			probs = append(probs, imp)
		}
	}
	return oddsmath.Mean(probs)
}

func outcomeFields(m *models.Market, outcome string, minBookies int) logrus.Fields {
	fields := marketFields(m.Key)
	fields["outcome"] = outcome
	fields["bookies"] = m.Bookies(outcome)
	if minBookies > 0 {
		fields["min_bookies"] = minBookies
	}
	return fields
}
