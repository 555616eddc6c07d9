package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/models"
)

// PostgresQuoteRepository implements QuoteRepository for PostgreSQL
type PostgresQuoteRepository struct {
	db     *database.DB
	writer *BatchWriter
}

// NewPostgresQuoteRepository creates a new quote repository
func NewPostgresQuoteRepository(db *database.DB, writer *BatchWriter) QuoteRepository {
	return &PostgresQuoteRepository{db: db, writer: writer}
}

// TruncateLatest empties every latest_* snapshot table
func (r *PostgresQuoteRepository) TruncateLatest(ctx context.Context) error {
	query := "TRUNCATE " + strings.Join(database.LatestTables, ", ")
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate latest tables: %w", err)
	}
	return nil
}

// InsertLatest writes the run's quotes into the snapshot tables
func (r *PostgresQuoteRepository) InsertLatest(ctx context.Context, quotes []models.Quote) (WriteResult, error) {
	return writePartitions(ctx, r.writer, quoteColumns, PartitionQuotes(quotes, true))
}

// InsertHistorical appends the run's quotes to the historical tables
func (r *PostgresQuoteRepository) InsertHistorical(ctx context.Context, quotes []models.Quote) (WriteResult, error) {
	return writePartitions(ctx, r.writer, quoteColumns, PartitionQuotes(quotes, false))
}

// Prune deletes historical quotes last updated before the cutoff
func (r *PostgresQuoteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, table := range database.HistoricalTables {
		tag, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE last_updated_timestamp < $1", table), before)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// rowWriter is the part of BatchWriter the repositories use
type rowWriter interface {
	Write(ctx context.Context, spec TableSpec, rows []Row) (WriteResult, error)
}

func writePartitions(ctx context.Context, w rowWriter, columns []string, parts map[string][]Row) (WriteResult, error) {
	var total WriteResult
	for _, table := range sortedTables(parts) {
		res, err := w.Write(ctx, TableSpec{Table: table, Columns: columns}, parts[table])
		total.Add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
