// Package store copies extracted items into PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/bspitems/internal/extract"
)

// Columns are written in this order by CopyFrom.
var Columns = []string{"map_file", "map_name", "friendly_name", "class_name", "item_type", "x", "y", "z"}

// Beginner starts transactions. *pgxpool.Pool implements it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ItemStore writes item rows for one table.
type ItemStore struct {
	db    Beginner
	table pgx.Identifier
}

// New returns an ItemStore writing to table.
func New(db Beginner, table string) *ItemStore {
	return &ItemStore{db: db, table: pgx.Identifier{table}}
}

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolConfig.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// EnsureTable creates the items table if it does not exist.
func (s *ItemStore) EnsureTable(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	map_file      TEXT NOT NULL,
	map_name      TEXT NOT NULL,
	friendly_name TEXT NOT NULL,
	class_name    TEXT NOT NULL,
	item_type     TEXT NOT NULL,
	x             TEXT NOT NULL,
	y             TEXT NOT NULL,
	z             TEXT NOT NULL
)`, s.table.Sanitize())

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table.Sanitize(), err)
	}
	return tx.Commit(ctx)
}

// Replace swaps every row of mapFile for items in one transaction, so
// re-running a file leaves the table in the same state.
func (s *ItemStore) Replace(ctx context.Context, mapFile, mapName string, items []extract.Item) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	del := fmt.Sprintf("DELETE FROM %s WHERE map_file = $1", s.table.Sanitize())
	if _, err := tx.Exec(ctx, del, mapFile); err != nil {
		return 0, fmt.Errorf("clearing rows for %s: %w", mapFile, err)
	}

	n, err := tx.CopyFrom(ctx, s.table, Columns, pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		it := items[i]
		return []any{mapFile, mapName, it.FriendlyName, it.ClassName, it.ItemType, it.X, it.Y, it.Z}, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copying rows for %s: %w", mapFile, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}
