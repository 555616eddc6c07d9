package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/datasource"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/models"
)

const (
	sportsCacheKey = "active_sports"
	sportsCacheTTL = time.Hour
)

// Snapshot is everything one run fetched from the provider
type Snapshot struct {
	Sports    []models.Sport
	Games     []models.Game
	Quotes    []models.Quote
	Events    int
	Normalize NormalizeStats
	Skipped   int
}

// IngestionService fetches odds, events, scores and props for the active
// sports with a bounded worker pool
type IngestionService struct {
	provider  datasource.OddsProvider
	cfg       config.ProviderConfig
	validator *DataValidator
	sports    *cache.Cache
	now       func() time.Time
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(provider datasource.OddsProvider, cfg config.ProviderConfig) *IngestionService {
	return &IngestionService{
		provider:  provider,
		cfg:       cfg,
		validator: NewDataValidator(),
		sports:    cache.New(sportsCacheTTL, 2*sportsCacheTTL),
		now:       time.Now,
	}
}

// ActiveSports returns the active sports of the catalogue that pass the
// configured allow-list. An empty allow-list keeps every active sport
// without outrights. The catalogue is cached for an hour.
func (s *IngestionService) ActiveSports(ctx context.Context) ([]models.Sport, error) {
	if cached, ok := s.sports.Get(sportsCacheKey); ok {
		return cached.([]models.Sport), nil
	}

	catalogue, err := s.provider.ListSports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}

	allowed := make(map[string]bool, len(s.cfg.Sports))
	for _, key := range s.cfg.Sports {
		allowed[key] = true
	}

	var active []models.Sport
	for _, sp := range catalogue {
		if !sp.Active {
			continue
		}
		if len(allowed) > 0 && !allowed[sp.Key] {
			continue
		}
		if len(allowed) == 0 && sp.HasOutrights {
			continue
		}
		active = append(active, sp)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Key < active[j].Key })

	s.sports.Set(sportsCacheKey, active, cache.DefaultExpiration)
	return active, nil
}

// sportResult is what one sport worker collected
type sportResult struct {
	events []datasource.Event
	games  []models.Game
	scores []models.Game
	quotes []models.Quote
	stats  NormalizeStats
}

// Fetch collects one snapshot of the given sports. An authentication
// failure aborts the whole fetch; any other provider error skips the sport
// or event it came from.
func (s *IngestionService) Fetch(ctx context.Context, rl *logger.RunLogger, sports []models.Sport) (*Snapshot, error) {
	normalizer := NewDataNormalizer(s.validator, rl.Component("normalizer"))
	snap := &Snapshot{Sports: sports}
	var mu sync.Mutex
	skip := func(unit, id string, err error) {
		rl.LogUnitSkipped(unit, id, err)
		metrics.RecordUnitSkipped(unit)
		mu.Lock()
		snap.Skipped++
		mu.Unlock()
	}

	results := make([]sportResult, len(sports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i := range sports {
		sport := sports[i].Key
		res := &results[i]
		g.Go(func() error {
			err := s.fetchSport(gctx, normalizer, sport, res)
			if err == nil {
				return nil
			}
			if datasource.IsFatal(err) || gctx.Err() != nil {
				return err
			}
			*res = sportResult{}
			skip("sport", sport, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	props, err := s.fetchProps(ctx, normalizer, sports, results, skip)
	if err != nil {
		return nil, err
	}

	var eventGames, scoreGames []models.Game
	var quotes []models.Quote
	for i, res := range results {
		snap.Events += len(res.events)
		snap.Normalize.Add(res.stats)
		eventGames = append(eventGames, res.games...)
		quotes = append(quotes, res.quotes...)
		quotes = append(quotes, props[i].quotes...)
		snap.Normalize.Add(props[i].stats)
		scoreGames = append(scoreGames, res.scores...)
		metrics.RecordQuotes(sports[i].Key, len(res.quotes)+len(props[i].quotes))
	}

	snap.Games = s.validGames(MergeGames(eventGames, scoreGames), rl)
	snap.Quotes = models.LatestQuotes(quotes)
	return snap, nil
}

// fetchSport fetches game-line odds, the event list and scores of a sport
func (s *IngestionService) fetchSport(ctx context.Context, n *DataNormalizer, sport string, res *sportResult) error {
	now := s.now()

	withOdds, err := s.provider.FetchOdds(ctx, sport)
	if err != nil {
		return err
	}
	for i := range withOdds {
		q, st := n.NormalizeEvent(sport, &withOdds[i])
		res.quotes = append(res.quotes, q...)
		res.stats.Add(st)
		res.games = append(res.games, GameFromEvent(&withOdds[i], now))
	}

	events, err := s.provider.FetchEvents(ctx, sport)
	if err != nil {
		return err
	}
	res.events = events
	for i := range events {
		res.games = append(res.games, GameFromEvent(&events[i], now))
	}

	scores, err := s.provider.FetchScores(ctx, sport, s.cfg.ScoresDaysFrom)
	if err != nil {
		return err
	}
	for i := range scores {
		res.scores = append(res.scores, GameFromScore(&scores[i], now))
	}
	return nil
}

type propJob struct {
	sport int
	event datasource.Event
}

// fetchProps fetches per-event prop markets for sports with a configured
// prop market list
func (s *IngestionService) fetchProps(ctx context.Context, n *DataNormalizer, sports []models.Sport, results []sportResult,
	skip func(unit, id string, err error)) ([]sportResult, error) {
	out := make([]sportResult, len(results))
	var jobs []propJob
	for i := range results {
		if len(s.cfg.PropMarkets[sports[i].Key]) == 0 {
			continue
		}
		for _, ev := range results[i].events {
			jobs = append(jobs, propJob{sport: i, event: ev})
		}
	}

	fetched := make([]sportResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for j, job := range jobs {
		j, job := j, job
		sport := sports[job.sport].Key
		g.Go(func() error {
			ev, err := s.provider.FetchEventOdds(gctx, sport, job.event.ID, s.cfg.PropMarkets[sport])
			if err != nil {
				if datasource.IsFatal(err) || gctx.Err() != nil {
					return err
				}
				skip("event", job.event.ID, err)
				return nil
			}
			if ev.ID == "" {
				ev.ID = job.event.ID
			}
			fetched[j].quotes, fetched[j].stats = n.NormalizeEvent(sport, ev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for j, job := range jobs {
		out[job.sport].quotes = append(out[job.sport].quotes, fetched[j].quotes...)
		out[job.sport].stats.Add(fetched[j].stats)
	}
	return out, nil
}

func (s *IngestionService) validGames(games []models.Game, rl *logger.RunLogger) []models.Game {
	out := games[:0]
	for i := range games {
		if problems := s.validator.ValidateGame(&games[i]); len(problems) > 0 {
			rl.Component("ingestion").WithFields(logrus.Fields{
				"event_type": logger.EventFilter,
				"reason":     logger.ReasonMalformed,
				"game_id":    games[i].ID,
				"problems":   problems,
			}).Debug("Dropped game")
			continue
		}
		out = append(out, games[i])
	}
	return out
}

func (s *IngestionService) workers() int {
	if s.cfg.Workers < 1 {
		return 1
	}
	return s.cfg.Workers
}
