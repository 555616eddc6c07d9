package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

const testDatabaseEnv = "ODDSEDGE_TEST_DATABASE_URL"

type fakeStore struct {
	mu          sync.Mutex
	games       map[string]struct{}
	existsCalls int
	existsErr   error
	chunks      [][]Row
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
	insertFn    func(call int32, rows []Row) error
}

func newFakeStore(games ...string) *fakeStore {
	s := &fakeStore{games: make(map[string]struct{})}
	for _, g := range games {
		s.games[g] = struct{}{}
	}
	return s
}

func (s *fakeStore) ExistingGames(ctx context.Context, ids []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls++
	if s.existsErr != nil {
		return nil, s.existsErr
	}
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := s.games[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) InsertChunk(ctx context.Context, spec TableSpec, rows []Row) (int64, error) {
	call := s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.insertFn != nil {
		if err := s.insertFn(call, rows); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, rows)
	s.mu.Unlock()
	return int64(len(rows)), nil
}

func testPersistenceConfig() config.PersistenceConfig {
	return config.PersistenceConfig{
		BatchSize:      1000,
		Concurrency:    4,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  2 * time.Millisecond,
		GameCacheTTL:   time.Minute,
	}
}

func testPersistenceLogger() (*logger.PersistenceLogger, *bytes.Buffer) {
	base := logrus.New()
	buf := &bytes.Buffer{}
	base.SetOutput(buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(logrus.DebugLevel)
	return logger.NewPersistenceLogger(base), buf
}

func makeRows(game string, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{GameID: game, Values: []any{game, i}}
	}
	return rows
}

var testSpec = TableSpec{Table: "moneyline", Columns: []string{"game_id", "odds"}}

func TestTableSpecInsertSQL(t *testing.T) {
	spec := TableSpec{Table: "arbitrage", Columns: []string{"game_id", "bookie_one", "odds_one"}}
	assert.Equal(t,
		"INSERT INTO arbitrage (game_id, bookie_one, odds_one) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		spec.InsertSQL(),
	)
}

func TestBatchWriter_SkipsOrphans(t *testing.T) {
	store := newFakeStore("g1")
	log, buf := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), testPersistenceConfig(), log)

	rows := append(makeRows("g1", 3), makeRows("g2", 2)...)
	res, err := w.Write(context.Background(), testSpec, rows)

	require.NoError(t, err)
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, int64(3), res.Inserted)
	assert.Equal(t, 2, res.SkippedOrphans)
	assert.Zero(t, res.FailedBatches)
	for _, chunk := range store.chunks {
		for _, r := range chunk {
			assert.Equal(t, "g1", r.GameID)
		}
	}
	assert.Contains(t, buf.String(), "Skipping rows referencing unknown games")
	assert.Contains(t, buf.String(), `"g2"`)
}

func TestBatchWriter_ChunksRows(t *testing.T) {
	store := newFakeStore("g1")
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), testPersistenceConfig(), log)

	res, err := w.Write(context.Background(), testSpec, makeRows("g1", 2500))

	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.Inserted)
	require.Len(t, store.chunks, 3)

	sizes := map[int]int{}
	for _, c := range store.chunks {
		sizes[len(c)]++
	}
	assert.Equal(t, map[int]int{1000: 2, 500: 1}, sizes)
}

func TestBatchWriter_RetriesTransientConflict(t *testing.T) {
	store := newFakeStore("g1")
	store.insertFn = func(call int32, rows []Row) error {
		if call == 1 {
			return &pgconn.PgError{Code: "40001", Message: "restart transaction"}
		}
		return nil
	}
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), testPersistenceConfig(), log)

	res, err := w.Write(context.Background(), testSpec, makeRows("g1", 10))

	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Inserted)
	assert.Zero(t, res.FailedBatches)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestBatchWriter_ExhaustedRetriesKeepOtherBatches(t *testing.T) {
	store := newFakeStore("g1", "g2")
	store.insertFn = func(call int32, rows []Row) error {
		if rows[0].GameID == "g2" {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	}
	cfg := testPersistenceConfig()
	cfg.BatchSize = 5
	log, buf := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), cfg, log)

	rows := append(makeRows("g1", 5), makeRows("g2", 5)...)
	res, err := w.Write(context.Background(), testSpec, rows)

	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Inserted)
	assert.Equal(t, 1, res.FailedBatches)
	assert.Equal(t, 5, res.FailedRows)
	// one call for g1, MaxRetries calls for g2
	assert.Equal(t, int32(1+cfg.MaxRetries), store.calls.Load())
	assert.Contains(t, buf.String(), "Batch write failed")
}

func TestBatchWriter_NonRetryableFailsOnce(t *testing.T) {
	store := newFakeStore("g1")
	store.insertFn = func(int32, []Row) error {
		return &pgconn.PgError{Code: "23503", Message: "foreign key violation"}
	}
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), testPersistenceConfig(), log)

	res, err := w.Write(context.Background(), testSpec, makeRows("g1", 3))

	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedBatches)
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestBatchWriter_CachesKnownGames(t *testing.T) {
	store := newFakeStore("g1")
	games := NewGameCache(time.Minute)
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, games, testPersistenceConfig(), log)

	_, err := w.Write(context.Background(), testSpec, makeRows("g1", 2))
	require.NoError(t, err)
	_, err = w.Write(context.Background(), testSpec, makeRows("g1", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, store.existsCalls)
	assert.True(t, games.Known("g1"))

	games.Forget("g1")
	delete(store.games, "g1")
	res, err := w.Write(context.Background(), testSpec, makeRows("g1", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, store.existsCalls)
	assert.Equal(t, 2, res.SkippedOrphans)
}

func TestBatchWriter_DependencyLookupError(t *testing.T) {
	store := newFakeStore()
	store.existsErr = errors.New("connection reset")
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), testPersistenceConfig(), log)

	_, err := w.Write(context.Background(), testSpec, makeRows("g1", 2))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "moneyline")
	assert.Zero(t, store.calls.Load())
}

func TestBatchWriter_EmptyInput(t *testing.T) {
	store := newFakeStore()
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(0), testPersistenceConfig(), log)

	res, err := w.Write(context.Background(), testSpec, nil)

	require.NoError(t, err)
	assert.Equal(t, WriteResult{}, res)
	assert.Zero(t, store.existsCalls)
}

func TestBatchWriter_BoundsConcurrency(t *testing.T) {
	store := newFakeStore("g1")
	store.delay = 5 * time.Millisecond
	cfg := testPersistenceConfig()
	cfg.BatchSize = 1
	cfg.Concurrency = 2
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), cfg, log)

	res, err := w.Write(context.Background(), testSpec, makeRows("g1", 8))

	require.NoError(t, err)
	assert.Equal(t, int64(8), res.Inserted)
	assert.LessOrEqual(t, store.maxInFlight.Load(), int32(2))
}

func TestBatchWriter_CancelledContext(t *testing.T) {
	store := newFakeStore("g1")
	store.insertFn = func(int32, []Row) error {
		return &pgconn.PgError{Code: "40001"}
	}
	cfg := testPersistenceConfig()
	cfg.RetryBaseDelay = time.Hour
	cfg.RetryMaxDelay = time.Hour
	log, _ := testPersistenceLogger()
	w := newBatchWriter(store, NewGameCache(time.Minute), cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := w.Write(ctx, testSpec, makeRows("g1", 3))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, res.FailedBatches)
}

func TestPartitionQuotes(t *testing.T) {
	now := time.Now().UTC()
	q := func(mt models.MarketType) models.Quote {
		return models.Quote{GameID: "g1", MarketType: mt, EventTime: now, LastUpdated: now}
	}
	quotes := []models.Quote{
		q(models.MarketMoneyline), q(models.MarketMoneyline),
		q(models.MarketSpread), q(models.MarketTotal), q(models.MarketProp),
	}

	latest := PartitionQuotes(quotes, true)
	assert.Len(t, latest[database.TableLatestMoneyline], 2)
	assert.Len(t, latest[database.TableLatestSpreads], 1)
	assert.Len(t, latest[database.TableLatestOverUnder], 1)
	assert.Len(t, latest[database.TableLatestProps], 1)

	historical := PartitionQuotes(quotes, false)
	assert.Len(t, historical[database.TableMoneyline], 2)
	assert.Len(t, historical[database.TableProps], 1)

	row := latest[database.TableLatestProps][0]
	assert.Equal(t, "g1", row.GameID)
	assert.Len(t, row.Values, len(quoteColumns))
}

func TestPartitionCandidates(t *testing.T) {
	cs := []models.EVCandidate{
		{GameID: "g1", MarketType: models.MarketMoneyline},
		{GameID: "g1", MarketType: models.MarketSpread},
		{GameID: "g2", MarketType: models.MarketProp},
	}

	parts := PartitionCandidates(cs)
	assert.Len(t, parts[database.TableEVMoneyline], 2)
	assert.Len(t, parts[database.TableEVProps], 1)
	assert.Len(t, parts[database.TableEVProps][0].Values, len(evColumns))
	assert.Len(t, arbitrageRow(models.ArbitrageOpportunity{GameID: "g1"}).Values, len(arbitrageColumns))
}

type recordingWriter struct {
	tables []string
	fail   string
}

func (w *recordingWriter) Write(ctx context.Context, spec TableSpec, rows []Row) (WriteResult, error) {
	w.tables = append(w.tables, spec.Table)
	if spec.Table == w.fail {
		return WriteResult{Rows: len(rows)}, fmt.Errorf("write %s failed", spec.Table)
	}
	return WriteResult{Rows: len(rows), Inserted: int64(len(rows))}, nil
}

func TestWritePartitions(t *testing.T) {
	parts := map[string][]Row{
		"spreads":   makeRows("g1", 2),
		"moneyline": makeRows("g1", 3),
	}

	w := &recordingWriter{}
	res, err := writePartitions(context.Background(), w, quoteColumns, parts)
	require.NoError(t, err)
	assert.Equal(t, []string{"moneyline", "spreads"}, w.tables)
	assert.Equal(t, int64(5), res.Inserted)

	w = &recordingWriter{fail: "moneyline"}
	_, err = writePartitions(context.Background(), w, quoteColumns, parts)
	require.Error(t, err)
	assert.Equal(t, []string{"moneyline"}, w.tables)
}

// TestRepositoriesRoundTrip writes a game, quotes and opportunities into a
// real database and prunes them again
func TestRepositoriesRoundTrip(t *testing.T) {
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("Integration test - set %s to run", testDatabaseEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewDBFromURL(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	log, _ := testPersistenceLogger()
	repos, err := NewRepositories(db, testPersistenceConfig(), log)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	game := models.Game{ID: "it-game-1", SportKey: "americanfootball_nfl", SportTitle: "NFL",
		GameTime: now.Add(time.Hour), HomeTeam: "Buffalo Bills", AwayTeam: "New York Jets", LastUpdated: now}
	_, err = repos.Game.Upsert(ctx, []models.Game{game})
	require.NoError(t, err)

	quotes := []models.Quote{
		{GameID: game.ID, SportType: "americanfootball_nfl", Bookie: "DraftKings", MarketType: models.MarketMoneyline,
			MarketKey: "h2h", Selector: "Buffalo Bills", BettingPoint: models.NoPoint, Odds: -150, EventTime: game.GameTime, LastUpdated: now},
		{GameID: "it-missing", SportType: "americanfootball_nfl", Bookie: "DraftKings", MarketType: models.MarketMoneyline,
			MarketKey: "h2h", Selector: "Miami Dolphins", BettingPoint: models.NoPoint, Odds: 120, EventTime: game.GameTime, LastUpdated: now},
	}
	require.NoError(t, repos.Quote.TruncateLatest(ctx))
	res, err := repos.Quote.InsertLatest(ctx, quotes)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, 1, res.SkippedOrphans)

	// idempotent re-run
	_, err = repos.Quote.InsertHistorical(ctx, quotes[:1])
	require.NoError(t, err)
	res, err = repos.Quote.InsertHistorical(ctx, quotes[:1])
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)

	candidates := []models.EVCandidate{{
		GameID: game.ID, SportType: "americanfootball_nfl", Bookie: "DraftKings", MarketType: models.MarketMoneyline,
		MarketKey: "h2h", Selector: "Buffalo Bills", BettingPoint: models.NoPoint, Odds: -150,
		ExpectedValue: 2.5, FairProbability: 0.615, ImpliedProbability: 0.6, MarketOverround: 1.04,
		Source: models.SourceObserved, NumBookies: 3, EventTime: game.GameTime, LastUpdated: now,
	}}
	arbs := []models.ArbitrageOpportunity{{
		GameID: game.ID, SportType: "americanfootball_nfl", MarketType: models.MarketMoneyline, MarketKey: "h2h",
		BettingPoint: models.NoPoint, SelectorOne: "Buffalo Bills", BookieOne: "DraftKings", OddsOne: 105,
		BetAmountOne: 51.16, SelectorTwo: "New York Jets", BookieTwo: "FanDuel", OddsTwo: 110, BetAmountTwo: 48.84,
		InverseSum: 0.9640, ProfitPercentage: 3.73, EventTime: game.GameTime, LastUpdated: now,
	}}
	arbRows := []Row{arbitrageRow(arbs[0])}
	arbSpec := TableSpec{Table: database.TableArbitrage, Columns: arbitrageColumns}

	// opportunity writes are idempotent on their natural keys
	writer := NewBatchWriter(db, repos.Games, testPersistenceConfig(), log)
	_, err = repos.Opportunity.ReplaceEV(ctx, nil)
	require.NoError(t, err)
	_, err = repos.Opportunity.ReplaceArbitrage(ctx, nil)
	require.NoError(t, err)
	for pass, want := range []int64{1, 0} {
		res, err = writePartitions(ctx, writer, evColumns, PartitionCandidates(candidates))
		require.NoError(t, err)
		assert.Equal(t, want, res.Inserted, "ev pass %d", pass)
		assert.Zero(t, res.FailedBatches)

		res, err = writer.Write(ctx, arbSpec, arbRows)
		require.NoError(t, err)
		assert.Equal(t, want, res.Inserted, "arbitrage pass %d", pass)
		assert.Zero(t, res.FailedBatches)
	}

	countRows := func(table string) int {
		var n int
		require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		return n
	}
	for i := 0; i < 2; i++ {
		_, err = repos.Opportunity.ReplaceEV(ctx, candidates)
		require.NoError(t, err)
		_, err = repos.Opportunity.ReplaceArbitrage(ctx, arbs)
		require.NoError(t, err)
		assert.Equal(t, 1, countRows(EVTable(models.MarketMoneyline)))
		assert.Equal(t, 1, countRows(database.TableArbitrage))
	}

	pruned, err := repos.Quote.Prune(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pruned, int64(1))

	deleted, err := repos.Game.DeleteFinished(ctx, now.Add(48*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Contains(t, deleted, game.ID)
	assert.False(t, repos.Games.Known(game.ID))
}
