package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/datasource"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

// Provider market keys of the binary game markets
const (
	marketKeyMoneyline = "h2h"
	marketKeySpreads   = "spreads"
	marketKeyTotals    = "totals"
)

// NormalizeStats counts what normalization kept and dropped
type NormalizeStats struct {
	Quotes          int
	DroppedMarkets  int
	DroppedOutcomes int
}

// Add accumulates other into s
func (s *NormalizeStats) Add(other NormalizeStats) {
	s.Quotes += other.Quotes
	s.DroppedMarkets += other.DroppedMarkets
	s.DroppedOutcomes += other.DroppedOutcomes
}

// DataNormalizer flattens provider payloads into quotes and games
type DataNormalizer struct {
	validator *DataValidator
	logger    *logrus.Entry
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(validator *DataValidator, log *logrus.Entry) *DataNormalizer {
	return &DataNormalizer{
		validator: validator,
		logger:    log,
	}
}

// NormalizeEvent converts one event payload into one quote per
// bookie and outcome
func (n *DataNormalizer) NormalizeEvent(sportKey string, ev *datasource.Event) ([]models.Quote, NormalizeStats) {
	var stats NormalizeStats
	var quotes []models.Quote

	if sportKey == "" {
		sportKey = ev.SportKey
	}

	for _, bm := range ev.Bookmakers {
		bookie := bm.Title
		if bookie == "" {
			bookie = bm.Key
		}

		for _, mkt := range bm.Markets {
			marketType := classifyMarket(mkt.Key)

			if marketType.IsGameLine() && len(mkt.Outcomes) != 2 {
				stats.DroppedMarkets++
				n.filtered(logger.ReasonMalformed, logrus.Fields{
					"game_id":    ev.ID,
					"bookie":     bookie,
					"market_key": mkt.Key,
					"outcomes":   len(mkt.Outcomes),
				})
				continue
			}

			updated := bm.LastUpdate
			if mkt.LastUpdate != nil {
				updated = *mkt.LastUpdate
			}

			for _, o := range mkt.Outcomes {
				q := models.Quote{
					GameID:       ev.ID,
					SportType:    sportKey,
					Bookie:       bookie,
					MarketType:   marketType,
					MarketKey:    mkt.Key,
					BettingPoint: formatPoint(o.Point),
					Odds:         int(math.Round(o.Price)),
					EventTime:    ev.CommenceTime,
					LastUpdated:  updated,
				}

				if marketType == models.MarketProp {
					q.Selector = strings.ToLower(strings.TrimSpace(o.Name))
					q.Participant = strings.TrimSpace(o.Description)
				} else if marketType == models.MarketTotal {
					q.Selector = strings.ToLower(strings.TrimSpace(o.Name))
				} else {
					q.Selector = strings.TrimSpace(o.Name)
				}

				if problems := n.validator.ValidateQuote(&q); len(problems) > 0 {
					stats.DroppedOutcomes++
					n.filtered(logger.ReasonMalformed, logrus.Fields{
						"game_id":    ev.ID,
						"bookie":     bookie,
						"market_key": mkt.Key,
						"outcome":    o.Name,
						"problems":   problems,
					})
					continue
				}

				quotes = append(quotes, q)
			}
		}
	}

	stats.Quotes = len(quotes)
	return quotes, stats
}

func (n *DataNormalizer) filtered(reason string, fields logrus.Fields) {
	n.logger.WithFields(fields).WithFields(logrus.Fields{
		"event_type": logger.EventFilter,
		"reason":     reason,
	}).Debug("Dropped provider data")
}

// GameFromEvent builds a scheduled game from an event payload
func GameFromEvent(ev *datasource.Event, now time.Time) models.Game {
	return models.Game{
		ID:          ev.ID,
		SportKey:    ev.SportKey,
		SportTitle:  ev.SportTitle,
		GameTime:    ev.CommenceTime,
		HomeTeam:    ev.HomeTeam,
		AwayTeam:    ev.AwayTeam,
		LastUpdated: now,
	}
}

// GameFromScore builds a game with its current score
func GameFromScore(s *datasource.ScoreEvent, now time.Time) models.Game {
	g := models.Game{
		ID:          s.ID,
		SportKey:    s.SportKey,
		SportTitle:  s.SportTitle,
		GameTime:    s.CommenceTime,
		Completed:   s.Completed,
		HomeTeam:    s.HomeTeam,
		AwayTeam:    s.AwayTeam,
		LastUpdated: now,
	}
	if s.LastUpdate != nil {
		g.LastUpdated = *s.LastUpdate
	}

	for _, ts := range s.Scores {
		score, err := strconv.Atoi(strings.TrimSpace(ts.Score))
		if err != nil {
			continue
		}
		switch ts.Name {
		case s.HomeTeam:
			g.HomeScore = &score
		case s.AwayTeam:
			g.AwayScore = &score
		}
	}
	return g
}

// MergeGames combines games by ID. Later entries win, so scores passed
// after events overwrite the scheduled state.
func MergeGames(groups ...[]models.Game) []models.Game {
	index := make(map[string]int)
	var out []models.Game
	for _, games := range groups {
		for _, g := range games {
			if i, ok := index[g.ID]; ok {
				out[i] = g
				continue
			}
			index[g.ID] = len(out)
			out = append(out, g)
		}
	}
	return out
}

func classifyMarket(key string) models.MarketType {
	switch key {
	case marketKeyMoneyline:
		return models.MarketMoneyline
	case marketKeySpreads:
		return models.MarketSpread
	case marketKeyTotals:
		return models.MarketTotal
	default:
		return models.MarketProp
	}
}

// formatPoint renders a line as text, or NoPoint when absent
func formatPoint(p *float64) string {
	if p == nil {
		return models.NoPoint
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
