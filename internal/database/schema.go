package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var schemaSQL string

// Table names
const (
	TableScores = "scores"

	TableMoneyline = "moneyline"
	TableSpreads   = "spreads"
	TableOverUnder = "overunder"
	TableProps     = "props"

	TableLatestMoneyline = "latest_moneyline"
	TableLatestSpreads   = "latest_spreads"
	TableLatestOverUnder = "latest_overunder"
	TableLatestProps     = "latest_props"

	TableEVMoneyline = "expected_value_moneyline"
	TableEVProps     = "expected_value_props"
	TableArbitrage   = "arbitrage"
)

// LatestTables lists the snapshot tables replaced on every run
var LatestTables = []string{TableLatestMoneyline, TableLatestSpreads, TableLatestOverUnder, TableLatestProps}

// HistoricalTables lists the append-only quote tables pruned by age
var HistoricalTables = []string{TableMoneyline, TableSpreads, TableOverUnder, TableProps}

// SchemaStatements splits the embedded schema into single statements
func SchemaStatements() []string {
	var stmts []string
	var b strings.Builder
	for _, line := range strings.Split(schemaSQL, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	return stmts
}

// Migrate applies the embedded schema in one transaction
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range SchemaStatements() {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
