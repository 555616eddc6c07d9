package repository

import (
	"context"
	"time"

	"github.com/yourusername/oddsedge/internal/models"
)

// GameRepository defines the interface for game data access
type GameRepository interface {
	Upsert(ctx context.Context, games []models.Game) (int, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	DeleteFinished(ctx context.Context, now time.Time, staleAfter time.Duration) ([]string, error)
}

// QuoteRepository defines the interface for quote data access
type QuoteRepository interface {
	TruncateLatest(ctx context.Context) error
	InsertLatest(ctx context.Context, quotes []models.Quote) (WriteResult, error)
	InsertHistorical(ctx context.Context, quotes []models.Quote) (WriteResult, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// OpportunityRepository defines the interface for EV and arbitrage data access
type OpportunityRepository interface {
	ReplaceEV(ctx context.Context, candidates []models.EVCandidate) (WriteResult, error)
	ReplaceArbitrage(ctx context.Context, arbs []models.ArbitrageOpportunity) (WriteResult, error)
}
