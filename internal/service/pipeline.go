package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/analysis"
	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/repository"
	"github.com/yourusername/oddsedge/internal/tracing"
)

// Stage names used in logs and metrics
const (
	StageSports   = "sports"
	StageFetch    = "fetch"
	StageGames    = "games"
	StageAnalysis = "analysis"
	StagePersist  = "persist"
	StageCleanup  = "cleanup"
	StagePublish  = "publish"
)

// Write targets recorded in RunStats.Writes
const (
	WriteLatestQuotes     = "latest_quotes"
	WriteHistoricalQuotes = "historical_quotes"
	WriteEV               = "expected_value"
	WriteArbitrage        = "arbitrage"
)

// Publisher fans opportunities out after they are persisted
type Publisher interface {
	PublishEV(ctx context.Context, candidates []models.EVCandidate) (int, error)
	PublishArbitrage(ctx context.Context, arbs []models.ArbitrageOpportunity) (int, error)
}

// RunResult is the outcome of one run
type RunResult struct {
	*RunStats
	Candidates []models.EVCandidate
	Arbitrages []models.ArbitrageOpportunity
}

// Pipeline runs one end-to-end pass: refresh sports, fetch, upsert games,
// analyze, replace snapshot tables, append history, prune, delete finished
// games and publish.
type Pipeline struct {
	cfg       *config.Config
	ingestion *IngestionService
	games     repository.GameRepository
	quotes    repository.QuoteRepository
	opps      repository.OpportunityRepository
	publisher Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewPipeline creates a new pipeline. publisher may be nil.
func NewPipeline(
	cfg *config.Config,
	ingestion *IngestionService,
	games repository.GameRepository,
	quotes repository.QuoteRepository,
	opps repository.OpportunityRepository,
	publisher Publisher,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		ingestion: ingestion,
		games:     games,
		quotes:    quotes,
		opps:      opps,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Run executes one run. Fatal errors (invalid credentials, a failed game
// upsert, a failed dependency lookup) abort the run and are returned.
// Skipped units and failed batches only mark the run partial.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	rl := logger.NewRunLogger(p.logger, runID)
	stats := NewRunStats(runID)
	res := &RunResult{RunStats: stats}

	ctx, seg := tracing.StartSegment(ctx, "oddsedge.run")
	tracing.AddAnnotation(ctx, "run_id", runID)

	err := p.run(ctx, rl, res)
	stats.Duration = time.Since(stats.StartTime)

	status := stats.Status()
	if err != nil {
		status = "failed"
	}
	metrics.RecordRun(status, stats.Duration.Seconds(), float64(p.now().Unix()))
	tracing.AddAnnotation(ctx, "status", status)
	tracing.AddMetadata(ctx, "stats", stats.Fields())
	tracing.End(seg, err)

	if err != nil {
		return res, err
	}

	rl.LogRunCompleted(stats.Duration, stats.Fields())
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, rl *logger.RunLogger, res *RunResult) error {
	stats := res.RunStats

	var sports []models.Sport
	err := p.stage(ctx, StageSports, func(ctx context.Context) error {
		var err error
		sports, err = p.ingestion.ActiveSports(ctx)
		return err
	})
	if err != nil {
		return p.fatal(rl, StageSports, err)
	}
	stats.Sports = len(sports)
	rl.LogRunStarted(len(sports))

	var snap *Snapshot
	err = p.stage(ctx, StageFetch, func(ctx context.Context) error {
		var err error
		snap, err = p.ingestion.Fetch(ctx, rl, sports)
		return err
	})
	if err != nil {
		return p.fatal(rl, StageFetch, err)
	}
	stats.Events = snap.Events
	stats.Quotes = len(snap.Quotes)
	stats.Normalize = snap.Normalize
	stats.SkippedUnits = snap.Skipped
	rl.LogStage(StageFetch, logrus.Fields{
		"events":           snap.Events,
		"games":            len(snap.Games),
		"quotes":           len(snap.Quotes),
		"dropped_markets":  snap.Normalize.DroppedMarkets,
		"dropped_outcomes": snap.Normalize.DroppedOutcomes,
		"skipped_units":    snap.Skipped,
	})

	err = p.stage(ctx, StageGames, func(ctx context.Context) error {
		n, err := p.games.Upsert(ctx, snap.Games)
		stats.Games = n
		return err
	})
	if err != nil {
		return p.fatal(rl, StageGames, err)
	}
	rl.LogStage(StageGames, logrus.Fields{"games": stats.Games})

	var result analysis.Result
	_ = p.stage(ctx, StageAnalysis, func(context.Context) error {
		al := logger.NewAnalysisLogger(p.logger).With(logrus.Fields{"run_id": stats.RunID})
		result = analysis.NewEngine(p.cfg.Analysis, al).Analyze(snap.Quotes)
		return nil
	})
	stats.Analysis = result.Stats
	res.Candidates = result.Candidates
	res.Arbitrages = result.Arbitrages
	p.recordAnalysis(result)

	err = p.stage(ctx, StagePersist, func(ctx context.Context) error {
		return p.persist(ctx, snap.Quotes, result, stats)
	})
	if err != nil {
		return p.fatal(rl, StagePersist, err)
	}
	rl.LogStage(StagePersist, logrus.Fields{"failed_batches": stats.FailedBatches()})

	_ = p.stage(ctx, StageCleanup, func(ctx context.Context) error {
		p.cleanup(ctx, rl, stats)
		return nil
	})

	if p.publisher != nil {
		_ = p.stage(ctx, StagePublish, func(ctx context.Context) error {
			p.publish(ctx, rl, res)
			return nil
		})
	}
	return nil
}

// persist replaces the latest snapshot, appends history and replaces the
// opportunity tables. Failed batches are counted in stats; only dependency
// lookup or context failures are returned.
func (p *Pipeline) persist(ctx context.Context, quotes []models.Quote, result analysis.Result, stats *RunStats) error {
	if err := p.quotes.TruncateLatest(ctx); err != nil {
		return err
	}

	writes := []struct {
		target string
		write  func() (repository.WriteResult, error)
	}{
		{WriteLatestQuotes, func() (repository.WriteResult, error) { return p.quotes.InsertLatest(ctx, quotes) }},
		{WriteHistoricalQuotes, func() (repository.WriteResult, error) { return p.quotes.InsertHistorical(ctx, quotes) }},
		{WriteEV, func() (repository.WriteResult, error) { return p.opps.ReplaceEV(ctx, result.Candidates) }},
		{WriteArbitrage, func() (repository.WriteResult, error) { return p.opps.ReplaceArbitrage(ctx, result.Arbitrages) }},
	}

	for _, w := range writes {
		res, err := w.write()
		stats.RecordWrite(w.target, res)
		metrics.RecordRowsWritten(w.target, res.Inserted, res.SkippedOrphans, res.FailedRows)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", w.target, err)
		}
	}
	return nil
}

// cleanup prunes history older than the retention window and deletes
// finished games. Failures are logged and the run continues.
func (p *Pipeline) cleanup(ctx context.Context, rl *logger.RunLogger, stats *RunStats) {
	now := p.now()

	pruned, err := p.quotes.Prune(ctx, now.Add(-p.cfg.Persistence.Retention))
	if err != nil {
		rl.LogUnitSkipped("prune", "historical", err)
		metrics.RecordUnitSkipped("prune")
	}
	stats.Pruned = pruned

	deleted, err := p.games.DeleteFinished(ctx, now, p.cfg.Persistence.StaleGameAfter)
	if err != nil {
		rl.LogUnitSkipped("cleanup", "games", err)
		metrics.RecordUnitSkipped("cleanup")
	}
	stats.GamesDeleted = len(deleted)

	rl.LogStage(StageCleanup, logrus.Fields{
		"rows_pruned":   stats.Pruned,
		"games_deleted": stats.GamesDeleted,
	})
}

func (p *Pipeline) publish(ctx context.Context, rl *logger.RunLogger, res *RunResult) {
	n, err := p.publisher.PublishEV(ctx, res.Candidates)
	res.Published += n
	if err != nil {
		rl.LogUnitSkipped("publish", "ev", err)
		metrics.RecordUnitSkipped("publish")
	}

	n, err = p.publisher.PublishArbitrage(ctx, res.Arbitrages)
	res.Published += n
	if err != nil {
		rl.LogUnitSkipped("publish", "arbitrage", err)
		metrics.RecordUnitSkipped("publish")
	}
	rl.LogStage(StagePublish, logrus.Fields{"published": res.Published})
}

func (p *Pipeline) recordAnalysis(result analysis.Result) {
	var bestEV, bestProfit float64
	if len(result.Candidates) > 0 {
		bestEV = result.Candidates[0].ExpectedValue
	}
	if len(result.Arbitrages) > 0 {
		bestProfit = result.Arbitrages[0].ProfitPercentage
	}
	metrics.RecordExclusions(result.Stats.Excluded)
	metrics.UpdateAnalysis(result.Stats.Priced, len(result.Candidates), len(result.Arbitrages), bestEV, bestProfit)
}

// stage times fn and traces it as a subsegment of the run
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, seg := tracing.StartSubsegment(ctx, name)
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStage(name, time.Since(start).Seconds())
	tracing.End(seg, err)
	return err
}

func (p *Pipeline) fatal(rl *logger.RunLogger, stage string, err error) error {
	rl.LogFatal(stage, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("run interrupted during %s: %w", stage, err)
	}
	return fmt.Errorf("run failed during %s: %w", stage, err)
}
