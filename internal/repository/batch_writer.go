package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/logger"
)

// TableSpec names a child table of scores and the columns a Row fills
type TableSpec struct {
	Table   string
	Columns []string
}

// InsertSQL returns the idempotent single-row insert for the table
func (s TableSpec) InsertSQL() string {
	placeholders := make([]string, len(s.Columns))
	for i := range s.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		s.Table, strings.Join(s.Columns, ", "), strings.Join(placeholders, ", "),
	)
}

// Row is one insert into a child table. GameID is the parent checked
// before the row is written.
type Row struct {
	GameID string
	Values []any
}

// WriteResult summarizes one Write call
type WriteResult struct {
	Rows           int   `json:"rows"`
	Inserted       int64 `json:"inserted"`
	SkippedOrphans int   `json:"skipped_orphans"`
	FailedBatches  int   `json:"failed_batches"`
	FailedRows     int   `json:"failed_rows"`
}

// Add accumulates another result into r
func (r *WriteResult) Add(o WriteResult) {
	r.Rows += o.Rows
	r.Inserted += o.Inserted
	r.SkippedOrphans += o.SkippedOrphans
	r.FailedBatches += o.FailedBatches
	r.FailedRows += o.FailedRows
}

// batchStore is the storage the writer drives
type batchStore interface {
	ExistingGames(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertChunk(ctx context.Context, spec TableSpec, rows []Row) (int64, error)
}

// GameCache remembers game IDs known to exist in scores so dependency
// checks skip the round trip
type GameCache struct {
	c *cache.Cache
}

// NewGameCache creates a cache whose entries expire after ttl. A zero ttl
// keeps entries until they are forgotten.
func NewGameCache(ttl time.Duration) *GameCache {
	if ttl <= 0 {
		return &GameCache{c: cache.New(cache.NoExpiration, 0)}
	}
	return &GameCache{c: cache.New(ttl, 2*ttl)}
}

// Known reports whether the game is cached as existing
func (gc *GameCache) Known(id string) bool {
	_, ok := gc.c.Get(id)
	return ok
}

// Add marks games as existing
func (gc *GameCache) Add(ids ...string) {
	for _, id := range ids {
		gc.c.SetDefault(id, struct{}{})
	}
}

// Forget drops games, typically after they were deleted
func (gc *GameCache) Forget(ids ...string) {
	for _, id := range ids {
		gc.c.Delete(id)
	}
}

// BatchWriter inserts rows that reference a game. Rows whose game is
// missing are skipped and logged, the rest are written in fixed-size
// chunks, each in its own transaction. A chunk that hits a transaction
// conflict is replayed with backoff; a chunk that exhausts its retries is
// counted as failed without undoing chunks already committed.
type BatchWriter struct {
	store  batchStore
	games  *GameCache
	cfg    config.PersistenceConfig
	policy database.RetryPolicy
	log    *logger.PersistenceLogger
}

// NewBatchWriter creates a batch writer over the database
func NewBatchWriter(db *database.DB, games *GameCache, cfg config.PersistenceConfig, log *logger.PersistenceLogger) *BatchWriter {
	return newBatchWriter(&pgBatchStore{db: db}, games, cfg, log)
}

func newBatchWriter(store batchStore, games *GameCache, cfg config.PersistenceConfig, log *logger.PersistenceLogger) *BatchWriter {
	return &BatchWriter{
		store: store,
		games: games,
		cfg:   cfg,
		policy: database.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		log: log,
	}
}

// Write checks parents, chunks and inserts rows into the table. The
// returned error is reserved for failures that make the whole write
// meaningless (dependency lookup failure, cancelled context); failed
// chunks are reported in the result.
func (w *BatchWriter) Write(ctx context.Context, spec TableSpec, rows []Row) (WriteResult, error) {
	res := WriteResult{Rows: len(rows)}
	if len(rows) == 0 {
		return res, nil
	}

	kept, orphans, err := w.checkParents(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("failed to check games for %s: %w", spec.Table, err)
	}
	if len(orphans) > 0 {
		res.SkippedOrphans = len(rows) - len(kept)
		w.log.LogOrphanSkipped(spec.Table, orphans, res.SkippedOrphans)
	}

	chunks := chunkRows(kept, w.cfg.BatchSize)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(w.cfg.Concurrency, 1))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			inserted, attempts, err := w.writeChunk(ctx, spec, i, chunk)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.FailedBatches++
				res.FailedRows += len(chunk)
				w.log.LogBatchFailed(spec.Table, i, len(chunk), attempts, err)
				return nil
			}
			res.Inserted += inserted
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (w *BatchWriter) writeChunk(ctx context.Context, spec TableSpec, batch int, chunk []Row) (int64, int, error) {
	var (
		inserted int64
		attempts int
	)
	err := database.Retry(ctx, w.policy, func(attempt int) error {
		attempts = attempt
		n, err := w.store.InsertChunk(ctx, spec, chunk)
		if err != nil {
			if database.IsRetryable(err) {
				w.log.LogBatchRetry(spec.Table, batch, attempt, err)
			}
			return err
		}
		inserted = n
		return nil
	})
	return inserted, attempts, err
}

// checkParents splits rows into those whose game exists and the sorted
// IDs of missing games
func (w *BatchWriter) checkParents(ctx context.Context, rows []Row) ([]Row, []string, error) {
	var unknown []string
	seen := make(map[string]struct{})
	for _, r := range rows {
		if _, ok := seen[r.GameID]; ok {
			continue
		}
		seen[r.GameID] = struct{}{}
		if !w.games.Known(r.GameID) {
			unknown = append(unknown, r.GameID)
		}
	}

	missing := make(map[string]struct{})
	if len(unknown) > 0 {
		existing, err := w.store.ExistingGames(ctx, unknown)
		if err != nil {
			return nil, nil, err
		}
		for _, id := range unknown {
			if _, ok := existing[id]; ok {
				w.games.Add(id)
			} else {
				missing[id] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return rows, nil, nil
	}

	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if _, ok := missing[r.GameID]; !ok {
			kept = append(kept, r)
		}
	}
	orphans := make([]string, 0, len(missing))
	for id := range missing {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	return kept, orphans, nil
}

func chunkRows(rows []Row, size int) [][]Row {
	if size <= 0 {
		size = len(rows)
	}
	var chunks [][]Row
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

// pgBatchStore implements batchStore with pgx batches
type pgBatchStore struct {
	db *database.DB
}

func (s *pgBatchStore) ExistingGames(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return existingGameIDs(ctx, s.db, ids)
}

func (s *pgBatchStore) InsertChunk(ctx context.Context, spec TableSpec, rows []Row) (int64, error) {
	query := spec.InsertSQL()
	var inserted int64

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(query, r.Values...)
		}

		br := tx.SendBatch(ctx, batch)
		for range rows {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("failed to insert into %s: %w", spec.Table, err)
			}
			inserted += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func existingGameIDs(ctx context.Context, db *database.DB, ids []string) (map[string]struct{}, error) {
	rows, err := db.Query(ctx, "SELECT game_id FROM scores WHERE game_id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}
