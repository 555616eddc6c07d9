package analysis

import (
	"time"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/models"
)

var (
	testEventTime = time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)
	testUpdated   = time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)
)

func testConfig(minBookies int) *config.AnalysisConfig {
	cfg := config.DefaultAnalysisConfig()
	cfg.MinBookies = minBookies
	cfg.MinBookiesOverrides = nil
	return &cfg
}

func moneyline(game, bookie, team string, odds int) models.Quote {
	return models.Quote{
		GameID:       game,
		SportType:    "americanfootball_nfl",
		Bookie:       bookie,
		MarketType:   models.MarketMoneyline,
		MarketKey:    "h2h",
		Selector:     team,
		BettingPoint: models.NoPoint,
		Odds:         odds,
		EventTime:    testEventTime,
		LastUpdated:  testUpdated,
	}
}

func spread(game, bookie, team, point string, odds int) models.Quote {
	q := moneyline(game, bookie, team, odds)
	q.MarketType = models.MarketSpread
	q.MarketKey = "spreads"
	q.BettingPoint = point
	return q
}

func prop(game, bookie, marketKey, player, selector, point string, odds int) models.Quote {
	q := moneyline(game, bookie, selector, odds)
	q.MarketType = models.MarketProp
	q.MarketKey = marketKey
	q.Participant = player
	q.BettingPoint = point
	return q
}

func marketFor(markets []*models.Market, key models.MarketKey) *models.Market {
	for _, m := range markets {
		if m.Key == key {
			return m
		}
	}
	return nil
}
