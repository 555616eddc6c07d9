package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/models"
)

const upsertGameSQL = `
	INSERT INTO scores (game_id, sport_key, sport_title, game_time, completed, status,
		home_team, home_score, away_team, away_score, last_updated_timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (game_id) DO UPDATE SET
		sport_title = EXCLUDED.sport_title,
		game_time = EXCLUDED.game_time,
		completed = scores.completed OR EXCLUDED.completed,
		status = EXCLUDED.status,
		home_score = COALESCE(EXCLUDED.home_score, scores.home_score),
		away_score = COALESCE(EXCLUDED.away_score, scores.away_score),
		last_updated_timestamp = GREATEST(scores.last_updated_timestamp, EXCLUDED.last_updated_timestamp)
`

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db     *database.DB
	games  *GameCache
	policy database.RetryPolicy
	size   int
}

// NewPostgresGameRepository creates a new game repository. Upserted games
// are added to the cache and deleted ones are forgotten.
func NewPostgresGameRepository(db *database.DB, games *GameCache, policy database.RetryPolicy, batchSize int) GameRepository {
	return &PostgresGameRepository{db: db, games: games, policy: policy, size: batchSize}
}

// Upsert inserts new games and refreshes scores and status of known ones
func (r *PostgresGameRepository) Upsert(ctx context.Context, games []models.Game) (int, error) {
	upserted := 0
	for start := 0; start < len(games); start += max(r.size, 1) {
		chunk := games[start:min(start+max(r.size, 1), len(games))]

		err := database.Retry(ctx, r.policy, func(int) error {
			return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
				batch := &pgx.Batch{}
				for i := range chunk {
					g := &chunk[i]
					batch.Queue(upsertGameSQL,
						g.ID, g.SportKey, g.SportTitle, g.GameTime, g.Completed, g.Status(),
						g.HomeTeam, g.HomeScore, g.AwayTeam, g.AwayScore, g.LastUpdated,
					)
				}
				return tx.SendBatch(ctx, batch).Close()
			})
		})
		if err != nil {
			return upserted, fmt.Errorf("failed to upsert games: %w", err)
		}

		for _, g := range chunk {
			r.games.Add(g.ID)
		}
		upserted += len(chunk)
	}
	return upserted, nil
}

// ExistingIDs returns the subset of ids present in scores
func (r *PostgresGameRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}
	return existingGameIDs(ctx, r.db, ids)
}

// DeleteFinished deletes completed games and games that started longer ago
// than staleAfter. Child rows go with them through the cascade.
func (r *PostgresGameRepository) DeleteFinished(ctx context.Context, now time.Time, staleAfter time.Duration) ([]string, error) {
	query := `DELETE FROM scores WHERE completed OR game_time < $1 RETURNING game_id`

	rows, err := r.db.Query(ctx, query, now.Add(-staleAfter))
	if err != nil {
		return nil, fmt.Errorf("failed to delete finished games: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted game: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete finished games: %w", err)
	}

	r.games.Forget(deleted...)
	return deleted, nil
}
