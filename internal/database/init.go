package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/oddsedge/internal/config"
)

// ErrSchemaMissing is returned by Initialize when the tables have not been
// created yet
var ErrSchemaMissing = errors.New("database schema not found, run `oddsedge migrate`")

// Initialize creates a database connection pool and verifies the schema
// has been applied
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	ok, err := db.SchemaApplied(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if !ok {
		db.Close()
		return nil, ErrSchemaMissing
	}

	return db, nil
}

// SchemaApplied reports whether the parent table of the schema exists
func (db *DB) SchemaApplied(ctx context.Context) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx, "SELECT to_regclass('public.scores') IS NOT NULL").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema: %w", err)
	}
	return exists, nil
}
