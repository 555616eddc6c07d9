package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/models"
)

// PostgresOpportunityRepository implements OpportunityRepository for PostgreSQL
type PostgresOpportunityRepository struct {
	db     *database.DB
	writer *BatchWriter
}

// NewPostgresOpportunityRepository creates a new opportunity repository
func NewPostgresOpportunityRepository(db *database.DB, writer *BatchWriter) OpportunityRepository {
	return &PostgresOpportunityRepository{db: db, writer: writer}
}

// ReplaceEV truncates both EV tables and writes the run's candidates
func (r *PostgresOpportunityRepository) ReplaceEV(ctx context.Context, candidates []models.EVCandidate) (WriteResult, error) {
	if err := r.truncate(ctx, database.TableEVMoneyline, database.TableEVProps); err != nil {
		return WriteResult{}, err
	}
	return writePartitions(ctx, r.writer, evColumns, PartitionCandidates(candidates))
}

// ReplaceArbitrage truncates the arbitrage table and writes the run's opportunities
func (r *PostgresOpportunityRepository) ReplaceArbitrage(ctx context.Context, arbs []models.ArbitrageOpportunity) (WriteResult, error) {
	if err := r.truncate(ctx, database.TableArbitrage); err != nil {
		return WriteResult{}, err
	}
	rows := make([]Row, 0, len(arbs))
	for _, a := range arbs {
		rows = append(rows, arbitrageRow(a))
	}
	return r.writer.Write(ctx, TableSpec{Table: database.TableArbitrage, Columns: arbitrageColumns}, rows)
}

func (r *PostgresOpportunityRepository) truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := r.db.Exec(ctx, "TRUNCATE "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
