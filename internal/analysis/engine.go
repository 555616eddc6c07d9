package analysis

import (
	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

// Stats summarizes one analysis pass
type Stats struct {
	Quotes     int            `json:"quotes"`
	Markets    int            `json:"markets"`
	Priced     int            `json:"priced"`
	Candidates int            `json:"candidates"`
	Arbitrages int            `json:"arbitrages"`
	Excluded   map[string]int `json:"excluded"`
}

// Result is the output of one analysis pass
type Result struct {
	Markets    []*models.Market
	Estimates  Estimates
	Candidates []models.EVCandidate
	Arbitrages []models.ArbitrageOpportunity
	Stats      Stats
}

// Engine runs the grouper, estimator, EV analyzer and arbitrage detector
// over one batch of quotes with a single configuration
type Engine struct {
	cfg       config.AnalysisConfig
	log       *logger.AnalysisLogger
	grouper   *Grouper
	estimator *Estimator
	ev        *EVAnalyzer
	arb       *ArbitrageDetector
}

// NewEngine creates a new analysis engine. log may be nil.
func NewEngine(cfg config.AnalysisConfig, log *logger.AnalysisLogger) *Engine {
	e := &Engine{cfg: cfg, log: log}
	e.grouper = NewGrouper(&e.cfg)
	e.estimator = NewEstimator(&e.cfg, log)
	e.ev = NewEVAnalyzer(&e.cfg)
	e.arb = NewArbitrageDetector(&e.cfg)
	return e
}

// Config returns the configuration the engine runs with
func (e *Engine) Config() config.AnalysisConfig {
	return e.cfg
}

// Analyze runs one full pass. Exclusions are counted per reason in
// Stats.Excluded and logged as filter events, never as errors.
func (e *Engine) Analyze(quotes []models.Quote) Result {
	ex := NewExclusions(e.log)

	markets := e.grouper.group(quotes, ex)
	estimates := e.estimator.estimate(markets, ex)
	candidates := e.ev.analyze(markets, estimates, ex)
	arbitrages := e.arb.detect(markets, ex)

	res := Result{
		Markets:    markets,
		Estimates:  estimates,
		Candidates: candidates,
		Arbitrages: arbitrages,
		Stats: Stats{
			Quotes:     len(quotes),
			Markets:    len(markets),
			Priced:     len(estimates),
			Candidates: len(candidates),
			Arbitrages: len(arbitrages),
			Excluded:   ex.Counts(),
		},
	}

	if e.log != nil {
		e.log.LogAnalysisSummary(res.Stats.Quotes, res.Stats.Markets, res.Stats.Priced,
			res.Stats.Candidates, res.Stats.Arbitrages, res.Stats.Excluded)
	}
	return res
}
