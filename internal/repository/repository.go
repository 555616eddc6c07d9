package repository

import (
	"fmt"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/logger"
)

// Repositories holds all repository implementations
type Repositories struct {
	Game        GameRepository
	Quote       QuoteRepository
	Opportunity OpportunityRepository
	Games       *GameCache
}

// NewRepositories creates and returns all repository implementations. The
// repositories share one known-game cache.
func NewRepositories(db *database.DB, cfg config.PersistenceConfig, log *logger.PersistenceLogger) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	games := NewGameCache(cfg.GameCacheTTL)
	writer := NewBatchWriter(db, games, cfg, log)
	policy := database.RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}

	return &Repositories{
		Game:        NewPostgresGameRepository(db, games, policy, cfg.BatchSize),
		Quote:       NewPostgresQuoteRepository(db, writer),
		Opportunity: NewPostgresOpportunityRepository(db, writer),
		Games:       games,
	}, nil
}
